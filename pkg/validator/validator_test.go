package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type resetForm struct {
	NewPassword     string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=NewPassword"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(loginForm{Email: "a@x.com", Password: "secret123"})
	assert.NoError(t, err)
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	err := Validate(loginForm{Email: "not-an-email", Password: "x"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	fields := valErr.Fields()
	assert.Contains(t, fields, "Email")
	assert.Contains(t, fields, "Password")
	assert.Equal(t, "must be a valid email address", fields["Email"])
	assert.Equal(t, "must be at least 8 characters", fields["Password"])
}

func TestValidate_EqFieldMismatch(t *testing.T) {
	err := Validate(resetForm{NewPassword: "newpass1", ConfirmPassword: "different"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must match NewPassword", valErr.Fields()["ConfirmPassword"])
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(loginForm{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email")
	assert.Contains(t, err.Error(), "is required")
}
