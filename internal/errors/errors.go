package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a tft error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrUnknownFood    ErrorCode = "UNKNOWN_FOOD"    // 422
	ErrStorage        ErrorCode = "STORAGE"         // 500
	ErrInternal       ErrorCode = "INTERNAL"        // 500
	ErrRemote         ErrorCode = "REMOTE"          // 502
)

// TftError represents a structured error with code, status, and details.
type TftError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *TftError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *TftError) Unwrap() error {
	return e.Err
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *TftError {
	return &TftError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing resource of the given kind.
func NewNotFound(kind, identifier string) *TftError {
	return &TftError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewUnknownFood creates a 422 error for a food id missing from the catalog.
func NewUnknownFood(foodID string) *TftError {
	return &TftError{
		Code:    ErrUnknownFood,
		Status:  422,
		Message: fmt.Sprintf("food not in catalog: %s", foodID),
		Details: map[string]any{"food_id": foodID},
	}
}

// NewStorage creates a 500 error for local storage failures.
func NewStorage(err error) *TftError {
	msg := "local storage error"
	if err != nil {
		msg = "local storage error: " + err.Error()
	}
	return &TftError{
		Code:    ErrStorage,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// NewRemote creates a 502 error for a failed call to the remote API.
// status is the HTTP status returned by the remote, or 0 when no response arrived.
func NewRemote(op string, status int, err error) *TftError {
	msg := fmt.Sprintf("%s failed", op)
	if status != 0 {
		msg = fmt.Sprintf("%s failed with status %d", op, status)
	}
	if err != nil {
		msg += ": " + err.Error()
	}
	details := map[string]any{"op": op}
	if status != 0 {
		details["remote_status"] = status
	}
	return &TftError{
		Code:    ErrRemote,
		Status:  502,
		Message: msg,
		Details: details,
		Err:     err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *TftError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &TftError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// Is checks if err (or anything it wraps) is a TftError with the given code.
func Is(err error, code ErrorCode) bool {
	var tErr *TftError
	if stderrors.As(err, &tErr) {
		return tErr.Code == code
	}
	return false
}

// As returns the TftError in err's chain, or wraps err as an internal error.
func As(err error) *TftError {
	var tErr *TftError
	if stderrors.As(err, &tErr) {
		return tErr
	}
	return NewInternal(err)
}
