package api

import "github.com/Ayala-Braverman/practicod3-1/internal/model"

// AuthDTO for register and login. The password travels in passwordHash and
// is hashed on the server; password is accepted as an alias.
type AuthDTO struct {
	UserName     string `json:"userName"`
	PasswordHash string `json:"passwordHash"`
	Password     string `json:"password"`
}

func (d AuthDTO) secret() string {
	if d.PasswordHash != "" {
		return d.PasswordHash
	}
	return d.Password
}

// AuthResponseDTO is returned by register and login
type AuthResponseDTO struct {
	Token string            `json:"token"`
	User  model.UserProfile `json:"user"`
}

// CreateTaskDTO for creating a new task. Any userId or isComplete sent by the
// client is ignored.
type CreateTaskDTO struct {
	Name string `json:"name"`
}

// UpdateTaskDTO for updating an existing task
type UpdateTaskDTO struct {
	Name       *string `json:"name"`
	IsComplete bool    `json:"isComplete"`
}

// ErrorDTO is the body of every failed request
type ErrorDTO struct {
	Error string `json:"error"`
}
