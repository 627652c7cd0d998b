package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a macrolog error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrWrongDay       ErrorCode = "WRONG_DAY"       // 409
	ErrValidation     ErrorCode = "VALIDATION"      // 422
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrStorageCorrupt ErrorCode = "STORAGE_CORRUPT" // 500, logged, never returned to callers of reads
	ErrInternal       ErrorCode = "INTERNAL"        // 500
	ErrLookupFailed   ErrorCode = "LOOKUP_FAILED"   // 502
)

// Validation reasons carried in Details["reason"].
const (
	ReasonBlankName = "blank_name"
	ReasonNegative  = "negative"
	ReasonAllZero   = "all_zero"
	ReasonOverLimit = "over_limit"
	ReasonBadMeal   = "bad_meal_type"
)

// MacroError represents a structured error with code, status, and details.
type MacroError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *MacroError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *MacroError {
	return &MacroError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for an entry id that is not in today's log.
func NewNotFound(id string) *MacroError {
	return &MacroError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("entry not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *MacroError {
	return &MacroError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewWrongDay creates a 409 error for a mutation aimed at a day other than today.
func NewWrongDay(requested, today string) *MacroError {
	return &MacroError{
		Code:    ErrWrongDay,
		Status:  409,
		Message: fmt.Sprintf("%s is read-only; only %s can be changed", requested, today),
		Details: map[string]any{"requested": requested, "today": today},
	}
}

// NewValidation creates a 422 error for an entry candidate that breaks a rule.
// field may be empty when the rule spans all macros.
func NewValidation(reason, field, msg string) *MacroError {
	details := map[string]any{"reason": reason}
	if field != "" {
		details["field"] = field
	}
	return &MacroError{
		Code:    ErrValidation,
		Status:  422,
		Message: msg,
		Details: details,
	}
}

// NewCancelled creates an error for operations interrupted by context cancellation.
func NewCancelled(op string) *MacroError {
	return &MacroError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewStorageCorrupt describes unreadable persisted data under key.
func NewStorageCorrupt(key string, err error) *MacroError {
	msg := fmt.Sprintf("stored value for %s is unreadable", key)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &MacroError{
		Code:    ErrStorageCorrupt,
		Status:  500,
		Message: msg,
		Details: map[string]any{"key": key},
	}
}

// NewLookupFailed creates a 502 error when the food lookup service misbehaves.
func NewLookupFailed(msg string) *MacroError {
	return &MacroError{
		Code:    ErrLookupFailed,
		Status:  502,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The cause is kept in Details for logging and never shown to clients.
func NewInternal(err error) *MacroError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &MacroError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if err (or anything it wraps) is a MacroError with the given code.
func Is(err error, code ErrorCode) bool {
	var mErr *MacroError
	if stderrors.As(err, &mErr) {
		return mErr.Code == code
	}
	return false
}

// As returns the MacroError inside err, if any.
func As(err error) (*MacroError, bool) {
	var mErr *MacroError
	if stderrors.As(err, &mErr) {
		return mErr, true
	}
	return nil, false
}
