package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind groups errors by how callers should react to them.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindUnauthorized  Kind = "unauthorized"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindRateLimit     Kind = "rate_limit"
	KindUnavailable   Kind = "unavailable"
	KindInternal      Kind = "internal"
)

var statusByKind = map[Kind]int{
	KindValidation:    http.StatusBadRequest,
	KindAuthorization: http.StatusForbidden,
	KindUnauthorized:  http.StatusUnauthorized,
	KindNotFound:      http.StatusNotFound,
	KindConflict:      http.StatusConflict,
	KindRateLimit:     http.StatusTooManyRequests,
	KindUnavailable:   http.StatusServiceUnavailable,
	KindInternal:      http.StatusInternalServerError,
}

// AppError is a custom error type that includes an HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same kind, so
// errors.Is(err, ErrForbidden) matches every authorization failure.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an AppError of the given kind
func New(kind Kind, message string) *AppError {
	return &AppError{
		Code:    statusFor(kind),
		Kind:    kind,
		Message: message,
	}
}

// Wrap attaches a cause to a new AppError. The cause is logged, never shown to clients.
func Wrap(kind Kind, message string, err error) *AppError {
	e := New(kind, message)
	e.Err = err
	return e
}

// NewAppError creates a new AppError from an explicit status code
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindFor(code),
		Message: message,
	}
}

// Common errors
var (
	ErrInvalidRequest = New(KindValidation, "Invalid request parameters")
	ErrUnauthorized   = New(KindUnauthorized, "Unauthorized access")
	ErrForbidden      = New(KindAuthorization, "Access denied")
	ErrNotFound       = New(KindNotFound, "Resource not found")
	ErrConflict       = New(KindConflict, "Request conflicts with current state")
	ErrInternalServer = New(KindInternal, "Internal server error")
	ErrRateLimit      = New(KindRateLimit, "Rate limit exceeded")
	ErrUnavailable    = New(KindUnavailable, "Service temporarily unavailable")
)

// Helper functions to create specific errors
func BadRequest(msg string) *AppError {
	return New(KindValidation, msg)
}

func NotFound(msg string) *AppError {
	return New(KindNotFound, msg)
}

func Unauthorized(msg string) *AppError {
	return New(KindUnauthorized, msg)
}

func Forbidden(msg string) *AppError {
	return New(KindAuthorization, msg)
}

func Conflict(msg string) *AppError {
	return New(KindConflict, msg)
}

func Unavailable(msg string, err error) *AppError {
	return Wrap(KindUnavailable, msg, err)
}

func Internal(msg string) *AppError {
	return New(KindInternal, msg)
}

// KindOf returns the kind of the first AppError in err's chain.
// Errors that carry no kind are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsTransient reports whether retrying the operation could succeed.
func IsTransient(err error) bool {
	return KindOf(err) == KindUnavailable
}

// As returns err as an AppError, wrapping unknown errors as internal.
func As(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(KindInternal, "Internal server error", err)
}

func statusFor(kind Kind) int {
	if code, ok := statusByKind[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func kindFor(code int) Kind {
	for kind, c := range statusByKind {
		if c == code {
			return kind
		}
	}
	return KindInternal
}
