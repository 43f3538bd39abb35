// Package service implements registration, login and per-user task
// operations on top of the credential and task stores.
package service

import "github.com/Ayala-Braverman/practicod3-1/internal/model"

// Re-exported so callers inside the server only need this package.
var (
	ErrInvalidInput       = model.ErrInvalidInput
	ErrDuplicateUser      = model.ErrDuplicateUser
	ErrInvalidCredentials = model.ErrInvalidCredentials
	ErrUnauthenticated    = model.ErrUnauthenticated
	ErrNotFound           = model.ErrNotFound
)
