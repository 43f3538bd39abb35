// Package model holds the domain types shared by the server and the client.
package model

// User represents a registered account
type User struct {
	ID           int64  `json:"id" db:"id"`
	UserName     string `json:"userName" db:"user_name"`
	PasswordHash string `json:"-" db:"password_hash"`
}

// Profile returns the public shape of the user.
func (u User) Profile() UserProfile {
	return UserProfile{ID: u.ID, UserName: u.UserName}
}

// UserProfile is the only user shape that crosses the API boundary.
type UserProfile struct {
	ID       int64  `json:"id"`
	UserName string `json:"userName"`
}

// Task represents a todo item owned by a single user
type Task struct {
	ID         int64  `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	IsComplete bool   `json:"isComplete" db:"is_complete"`
	UserID     int64  `json:"userId" db:"user_id"`
}
