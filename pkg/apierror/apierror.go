package apierror

import (
	"errors"
	"fmt"
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeDuplicateAccount   = "DUPLICATE_ACCOUNT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeBadRequest         = "BAD_REQUEST"
	CodeInternal           = "INTERNAL_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the sentinel (and any cause) so errors.Is works across the boundary.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// Wrap attaches err as the underlying cause and returns e.
func (e *APIError) Wrap(err error) *APIError {
	e.Err = err
	return e
}

// CodeOf returns the code of the first APIError in err's chain, or "" if none.
func CodeOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}
