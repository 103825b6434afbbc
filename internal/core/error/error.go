package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage is used when a Redis key does not exist.
	RedisNotFoundMessage = "redis key not found"
)

// Kind classifies an AppError for callers that branch on the failure category.
type Kind string

const (
	KindInvalidInput       Kind = "invalid_input"
	KindDuplicateUser      Kind = "duplicate_user"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthenticated    Kind = "unauthenticated"
	KindNotFound           Kind = "not_found"
	KindUpstream           Kind = "upstream"
	KindInternal           Kind = "internal"
)

var kindStatus = map[Kind]int{
	KindInvalidInput:       http.StatusBadRequest,
	KindDuplicateUser:      http.StatusBadRequest,
	KindInvalidCredentials: http.StatusUnauthorized,
	KindUnauthenticated:    http.StatusUnauthorized,
	KindNotFound:           http.StatusNotFound,
	KindUpstream:           http.StatusBadGateway,
	KindInternal:           http.StatusInternalServerError,
}

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Kind    Kind
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches the underlying error, or is an
// AppError of the same kind.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) && t.Kind != "" {
		return t.Kind == e.Kind
	}
	return errors.Is(e.Err, target)
}

// New creates a new AppError with the provided information. The kind is
// derived from the status so ad-hoc errors still classify.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Kind:    kindForStatus(status),
		Err:     err,
		Status:  status,
		Message: message,
	}
}

func newKind(kind Kind, err error, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Err:     err,
		Status:  kindStatus[kind],
		Message: message,
	}
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindInvalidInput
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadGateway:
		return KindUpstream
	default:
		return KindInternal
	}
}

// InvalidInput reports missing or malformed request fields.
func InvalidInput(message string) *AppError {
	return newKind(KindInvalidInput, nil, message)
}

// DuplicateUser reports a registration for an email that already exists.
func DuplicateUser(message string) *AppError {
	return newKind(KindDuplicateUser, nil, message)
}

// InvalidCredentials reports a failed email/password match.
func InvalidCredentials(message string) *AppError {
	return newKind(KindInvalidCredentials, nil, message)
}

// Unauthenticated reports a missing, unknown or expired credential.
func Unauthenticated(message string) *AppError {
	return newKind(KindUnauthenticated, nil, message)
}

// NotFound reports a missing record.
func NotFound(message string) *AppError {
	return newKind(KindNotFound, nil, message)
}

// Internal wraps an unexpected failure. The message shown to clients is always
// SystemErrorMessage.
func Internal(err error) *AppError {
	return newKind(KindInternal, err, SystemErrorMessage)
}

// Sentinels for errors.Is comparisons by kind.
var (
	ErrInvalidInput       = &AppError{Kind: KindInvalidInput}
	ErrDuplicateUser      = &AppError{Kind: KindDuplicateUser}
	ErrInvalidCredentials = &AppError{Kind: KindInvalidCredentials}
	ErrUnauthenticated    = &AppError{Kind: KindUnauthenticated}
	ErrNotFound           = &AppError{Kind: KindNotFound}
	ErrInternal           = &AppError{Kind: KindInternal}
)

// KindOf returns the kind of the first AppError in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != "" {
		return appErr.Kind
	}
	return KindInternal
}

// StatusOf returns the HTTP status and the client-safe message for err.
func StatusOf(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.Status
		if status == 0 {
			status = kindStatus[appErr.Kind]
		}
		if status == 0 {
			status = http.StatusInternalServerError
		}
		msg := appErr.Message
		if msg == "" {
			msg = SystemErrorMessage
		}
		return status, msg
	}
	return http.StatusInternalServerError, SystemErrorMessage
}
