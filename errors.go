package taskauth

import (
	"database/sql"
	"strings"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// Text codes exposed to API clients alongside HTTP status codes.
const (
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenInvalid      = "TOKEN_INVALID"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeCredentialMismach = "INVALID_CREDENTIALS"
	TextCodeCodeMismatch      = "CODE_MISMATCH"
)

// ErrTokenExpired is returned when a token's embedded expiry has elapsed.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenInvalid is returned when a token fails signature verification,
// carries no subject, or no longer matches the stored credential.
var ErrTokenInvalid = errors.New("token is invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenInvalid)

// ErrTokenMalformed is returned when the input is not a parseable token.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrInvalidCredentials is the single login failure we expose, regardless of
// whether the email was unknown or the password wrong.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeCredentialMismach)

// ErrCodeMismatch is returned when a verification or reset code check fails
// for any reason: wrong code, wrong token, or an expired code.
var ErrCodeMismatch = errors.New("invalid or expired code", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeCodeMismatch)

// ErrIdentityNotFound is the error we return for non found identities.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword wraps the bcrypt mismatch error.
var ErrMismatchedHashAndPassword = errors.New("hash and password mismatch", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("string should not be empty", errors.CategoryValidation)

// isRecordNotFound treats both repository misses and raw scan misses as
// not found. The tokens store surfaces sql.ErrNoRows directly.
func isRecordNotFound(err error) bool {
	if err == nil {
		return false
	}
	return repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsTokenInvalidError will check for rejected tokens, including decode
// failures that wrap the sentinel's message rather than the sentinel itself.
func IsTokenInvalidError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenInvalid) {
		return true
	}
	return strings.Contains(err.Error(), "token is invalid")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
