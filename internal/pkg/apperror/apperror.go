package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error so callers can branch on it without matching message strings.
type Kind string

const (
	KindInvalidRequest     Kind = "invalid_request"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindSignatureInvalid   Kind = "signature_invalid"
	KindMalformedEvent     Kind = "malformed_event"
	KindPersistenceFailure Kind = "persistence_failure"
	KindUnauthorized       Kind = "unauthorized"
	KindInternal           Kind = "internal"
)

// Status maps a kind to the HTTP status code returned to the caller.
// MalformedEvent and PersistenceFailure are 5xx so a payment provider retries delivery.
func (k Kind) Status() int {
	switch k {
	case KindInvalidRequest, KindSignatureInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Kind    Kind   // Error classification
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
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

// Is reports whether target is an AppError with the same kind and message,
// so sentinel values keep matching after being wrapped with a cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New creates a new AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    kind.Status(),
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    kind.Status(),
		Message: message,
		Err:     err,
	}
}

// WithCause returns a copy of a sentinel AppError carrying err as its cause.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
