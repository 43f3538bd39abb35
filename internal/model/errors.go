package model

import "errors"

// Failures shared by the server and the client. The API maps each one onto a
// status code and the client maps status codes back.
var (
	// ErrInvalidInput is returned when a required field is missing or blank.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateUser is returned when the user name is already taken.
	ErrDuplicateUser = errors.New("username already exists")
	// ErrInvalidCredentials is returned for an unknown user or a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthenticated is returned for a missing, invalid or expired token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound is returned for a missing task or one owned by another user.
	ErrNotFound = errors.New("not found")
)
