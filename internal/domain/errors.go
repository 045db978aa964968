package domain

import "errors"

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternalError = errors.New("internal error")
	ErrUnauthorized  = errors.New("unauthorized")
)

// Validation constants
const (
	MaxNameLength = 200
)
