package taskauth_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	taskauth "github.com/goliatone/go-taskauth"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      taskauth.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      taskauth.ErrIdentityNotFound,
			expected: false,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := taskauth.IsTokenExpiredError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured malformed error",
			err:      taskauth.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "Legacy malformed error (string match)",
			err:      errors.New("parse failed: token is malformed"),
			expected: true,
		},
		{
			name:     "Middleware missing token error",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "Different error",
			err:      taskauth.ErrTokenExpired,
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := taskauth.IsMalformedError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsTokenInvalidError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured invalid token error",
			err:      taskauth.ErrTokenInvalid,
			expected: true,
		},
		{
			name:     "Wrapped decode failure (string match)",
			err:      goerrors.New("token is invalid", goerrors.CategoryAuth),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      taskauth.ErrTokenExpired,
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := taskauth.IsTokenInvalidError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestErrorTextCodes(t *testing.T) {
	assert.Equal(t, "TOKEN_EXPIRED", taskauth.ErrTokenExpired.TextCode)
	assert.Equal(t, "TOKEN_INVALID", taskauth.ErrTokenInvalid.TextCode)
	assert.Equal(t, "TOKEN_MALFORMED", taskauth.ErrTokenMalformed.TextCode)
	assert.Equal(t, "INVALID_CREDENTIALS", taskauth.ErrInvalidCredentials.TextCode)
	assert.Equal(t, "CODE_MISMATCH", taskauth.ErrCodeMismatch.TextCode)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "auth errors map to 401",
			err:      taskauth.ErrInvalidCredentials,
			expected: router.StatusUnauthorized,
		},
		{
			name:     "not found maps to 404",
			err:      taskauth.ErrIdentityNotFound,
			expected: router.StatusNotFound,
		},
		{
			name:     "validation maps to 400",
			err:      taskauth.ErrNoEmptyString,
			expected: router.StatusBadRequest,
		},
		{
			name:     "conflict maps to 409",
			err:      goerrors.New("duplicate email", goerrors.CategoryConflict),
			expected: router.StatusConflict,
		},
		{
			name:     "internal maps to 500",
			err:      goerrors.New("boom", goerrors.CategoryInternal),
			expected: router.StatusInternalServerError,
		},
		{
			name:     "plain errors map to 500",
			err:      errors.New("boom"),
			expected: router.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, taskauth.StatusForError(tt.err))
		})
	}
}
