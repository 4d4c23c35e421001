package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKindAndCause(t *testing.T) {
	err := NewError(ErrorUnauthorized, "invalid or expired token", ErrTokenExpired)

	assert.True(t, errors.Is(err, ErrorUnauthorized))
	assert.True(t, errors.Is(err, ErrTokenExpired))
	assert.False(t, errors.Is(err, ErrorNotFound))
	assert.Equal(t, "invalid or expired token: token expired", err.Error())
}

func TestError_NilCause(t *testing.T) {
	err := NewError(ErrorConflict, "email exists", nil)

	assert.True(t, errors.Is(err, ErrorConflict))
	assert.Equal(t, "email exists", err.Error())
}

func TestAsError_ThroughWrapping(t *testing.T) {
	inner := Validation("email, username and password are required", "email")
	wrapped := fmt.Errorf("register: %w", inner)

	e, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrorValidation, e.Kind)
	assert.Equal(t, []string{"email"}, e.Details)
	assert.True(t, errors.Is(wrapped, ErrorValidation))

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
}

func TestConflictField(t *testing.T) {
	err := fmt.Errorf("create user: %w", Conflict("referral_code", errors.New("duplicate key")))

	field, ok := ConflictField(err)
	require.True(t, ok)
	assert.Equal(t, "referral_code", field)
	assert.True(t, errors.Is(err, ErrorConflict))
	assert.Equal(t, "referral_code already exists: duplicate key", errors.Unwrap(err).Error())

	_, ok = ConflictField(Validation("bad"))
	assert.False(t, ok)
}
