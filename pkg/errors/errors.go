package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAccessDenied       = errors.New("access denied")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrNotificationFailed = errors.New("notification failed")
	ErrInternal           = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// AccessDenied creates a 403 error. Login and refresh failures share this
// single uniform error so callers cannot tell a missing account from a wrong
// password or a stale refresh token.
func AccessDenied() *AppError {
	return &AppError{
		Code:    "ACCESS_DENIED",
		Message: "access denied",
		Status:  http.StatusForbidden,
		Err:     ErrAccessDenied,
	}
}

// Unauthenticated creates a 401 error for requests with no resolvable caller identity.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHENTICATED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthenticated,
	}
}

// InvalidCredential creates a 401 error for a failed current-password check.
func InvalidCredential(message string) *AppError {
	return &AppError{
		Code:    "INVALID_CREDENTIAL",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrInvalidCredential,
	}
}

// NotificationFailed creates a 502 error for an email transport failure,
// distinct from any credential error.
func NotificationFailed(err error) *AppError {
	return &AppError{
		Code:    "NOTIFICATION_FAILED",
		Message: "failed to send notification email",
		Status:  http.StatusBadGateway,
		Err:     errors.Join(ErrNotificationFailed, err),
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotificationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
