package errors

import "fmt"

// ErrorCode represents a timecap error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrInvalidPayload ErrorCode = "INVALID_PAYLOAD" // 422
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrYearTaken      ErrorCode = "YEAR_TAKEN"      // 409
	ErrFetchFailed    ErrorCode = "FETCH_FAILED"    // 502
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// Error represents a structured error with code, status, and details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidPayload creates a 422 error for timeline data that fails validation.
func NewInvalidPayload(msg string) *Error {
	return &Error{
		Code:    ErrInvalidPayload,
		Status:  422,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a timeline cannot be found.
func NewNotFound(identifier string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("timeline not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import/export file.
func NewFileNotFound(path string) *Error {
	return &Error{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewYearTaken creates a 409 error when a capsule year already exists in a timeline.
func NewYearTaken(timelineID string, year int) *Error {
	return &Error{
		Code:    ErrYearTaken,
		Status:  409,
		Message: fmt.Sprintf("timeline %q already has a capsule for year %d", timelineID, year),
		Details: map[string]any{"timeline_id": timelineID, "year": year},
	}
}

// NewFetchFailed creates a 502 error for a failed external fetch.
func NewFetchFailed(msg string) *Error {
	return &Error{
		Code:    ErrFetchFailed,
		Status:  502,
		Message: msg,
	}
}

// NewCancelled creates a 499 error for a cancelled operation.
func NewCancelled(op string) *Error {
	return &Error{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	if tErr, ok := err.(*Error); ok {
		return tErr.Code == code
	}
	return false
}
