package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorString(t *testing.T) {
	err := NotFound("user", "u-1")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "u-1")

	wrapped := Internal(errors.New("pool exhausted"))
	assert.Contains(t, wrapped.Error(), "pool exhausted")
}

func TestAppError_Unwrap(t *testing.T) {
	assert.ErrorIs(t, NotFound("user", "u-1"), ErrNotFound)
	assert.ErrorIs(t, AlreadyExists("user", "email", "a@x.com"), ErrAlreadyExists)
	assert.ErrorIs(t, InvalidInput("bad"), ErrInvalidInput)
	assert.ErrorIs(t, AccessDenied(), ErrAccessDenied)
	assert.ErrorIs(t, Unauthenticated("no identity"), ErrUnauthenticated)
	assert.ErrorIs(t, InvalidCredential("wrong old password"), ErrInvalidCredential)
	assert.ErrorIs(t, NotificationFailed(errors.New("dial tcp")), ErrNotificationFailed)
}

func TestNotificationFailed_KeepsCause(t *testing.T) {
	cause := errors.New("smtp: 550 mailbox unavailable")
	err := NotificationFailed(cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrNotificationFailed)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"app error not found", NotFound("user", "u-1"), http.StatusNotFound},
		{"app error access denied", AccessDenied(), http.StatusForbidden},
		{"app error unauthenticated", Unauthenticated("x"), http.StatusUnauthorized},
		{"app error invalid credential", InvalidCredential("x"), http.StatusUnauthorized},
		{"app error notification failed", NotificationFailed(errors.New("x")), http.StatusBadGateway},
		{"wrapped sentinel", fmt.Errorf("load user: %w", ErrNotFound), http.StatusNotFound},
		{"wrapped access denied", fmt.Errorf("refresh: %w", ErrAccessDenied), http.StatusForbidden},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("connection refused")
	wrapped := Wrap(base, "query users")
	assert.ErrorIs(t, wrapped, base)
	assert.Contains(t, wrapped.Error(), "query users")
}
