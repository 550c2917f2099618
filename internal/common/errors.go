package common

import (
	"errors"
	"net/http"
)

// Canonical error codes shared across handlers.
const (
	CodeValidation       = "VALIDATION"
	CodeAuth             = "AUTH"
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyProcessed = "ALREADY_PROCESSED"
	CodeGateway          = "GATEWAY"
	CodeStore            = "STORE"
	CodeConfig           = "CONFIG"
)

// AppError carries a stable code, an HTTP status, and a message safe to
// render to callers. The wrapped cause stays server-side.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// ValidationError flags malformed or missing caller input.
func ValidationError(message string) *AppError {
	return NewAppError(CodeValidation, message, http.StatusBadRequest, nil)
}

// GatewayError wraps an upstream payment gateway failure. The message is the
// gateway's own detail when available; it is safe to surface to the operator.
func GatewayError(message string, err error) *AppError {
	return NewAppError(CodeGateway, message, http.StatusBadGateway, err)
}

// AsAppError extracts an AppError when present.
func AsAppError(err error) (*AppError, bool) {
	var target *AppError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
