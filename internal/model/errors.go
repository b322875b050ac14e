package model

import "errors"

var (
	// Account related errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrUnauthorized = errors.New("unauthorized")

	// Collaborator errors
	ErrStoreUnavailable = errors.New("store unavailable")

	// Generic errors
	ErrValidation = errors.New("validation failed")
)
