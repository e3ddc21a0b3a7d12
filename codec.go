package taskauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenClaims is the signed payload: subject user id plus the registered
// claim set. The wire format is a self-contained HS256 JWT carrying
// {user_id, exp}, readable by any verifier holding the shared secret.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID string `json:"user_id,omitempty"`
}

// UserID returns the subject user id.
func (c *TokenClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// TokenCodec encodes and decodes signed, time-bound claims using a shared
// symmetric secret. It keeps no state beyond its configuration.
type TokenCodec struct {
	signingKey []byte
	issuer     string
	logger     Logger
}

// NewTokenCodec creates a new TokenCodec instance
func NewTokenCodec(signingKey []byte, issuer string, logger Logger) *TokenCodec {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenCodec{
		signingKey: signingKey,
		issuer:     issuer,
		logger:     logger,
	}
}

// Encode signs claims for the given subject with an absolute expiry of
// now+ttl. A zero or negative ttl produces an already expired token.
func (tc *TokenCodec) Encode(subjectID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tc.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID: subjectID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(tc.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Decode parses and verifies a token string. Failure modes are distinct:
// ErrTokenExpired when the embedded expiry has elapsed, ErrTokenMalformed
// when the input is not parseable, ErrTokenInvalid when the signature fails
// or the subject is missing.
func (tc *TokenCodec) Decode(tokenString string) (*TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if tc.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(tc.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			tc.logger.Error("TokenCodec decode encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tc.signingKey, nil
	}, parserOptions...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
				WithTextCode(ErrTokenMalformed.TextCode)
		default:
			return nil, errors.Wrap(err, ErrTokenInvalid.Category, ErrTokenInvalid.Message).
				WithTextCode(ErrTokenInvalid.TextCode)
		}
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		tc.logger.Error("TokenCodec decode could not map claims")
		return nil, ErrTokenInvalid
	}

	if claims.UserID() == "" {
		tc.logger.Warn("token missing required field: user_id")
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// Validate satisfies the jwtware token validator contract.
func (tc *TokenCodec) Validate(tokenString string) (*TokenClaims, error) {
	return tc.Decode(tokenString)
}
