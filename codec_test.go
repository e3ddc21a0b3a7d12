package taskauth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	taskauth "github.com/goliatone/go-taskauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCodecEncode(t *testing.T) {
	signingKey := []byte("test-signing-key")
	codec := taskauth.NewTokenCodec(signingKey, "test-issuer", nil)

	t.Run("produces a parseable HS256 token", func(t *testing.T) {
		tokenString, err := codec.Encode("user-123", time.Hour)
		require.NoError(t, err)
		require.NotEmpty(t, tokenString)

		token, err := jwt.ParseWithClaims(tokenString, &taskauth.TokenClaims{}, func(token *jwt.Token) (any, error) {
			return signingKey, nil
		})
		require.NoError(t, err)
		assert.True(t, token.Valid)
		assert.Equal(t, "HS256", token.Method.Alg())

		claims, ok := token.Claims.(*taskauth.TokenClaims)
		require.True(t, ok)
		assert.Equal(t, "user-123", claims.UserID())
		assert.Equal(t, "test-issuer", claims.Issuer)
		assert.NotNil(t, claims.IssuedAt)
		assert.NotNil(t, claims.ExpiresAt)
	})

	t.Run("expiry is issue time plus ttl", func(t *testing.T) {
		before := time.Now()
		tokenString, err := codec.Encode("user-123", 30*time.Minute)
		require.NoError(t, err)

		claims, err := codec.Decode(tokenString)
		require.NoError(t, err)

		expires := claims.Expires()
		assert.WithinDuration(t, before.Add(30*time.Minute), expires, 5*time.Second)
	})
}

func TestTokenCodecDecode(t *testing.T) {
	codec := taskauth.NewTokenCodec([]byte("test-signing-key"), "test-issuer", nil)

	t.Run("roundtrip", func(t *testing.T) {
		tokenString, err := codec.Encode("user-123", time.Hour)
		require.NoError(t, err)

		claims, err := codec.Decode(tokenString)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID())
	})

	t.Run("expired token", func(t *testing.T) {
		tokenString, err := codec.Encode("user-123", -time.Minute)
		require.NoError(t, err)

		_, err = codec.Decode(tokenString)
		assert.ErrorIs(t, err, taskauth.ErrTokenExpired)
		assert.True(t, taskauth.IsTokenExpiredError(err))
	})

	t.Run("zero ttl is already expired", func(t *testing.T) {
		tokenString, err := codec.Encode("user-123", 0)
		require.NoError(t, err)

		_, err = codec.Decode(tokenString)
		assert.ErrorIs(t, err, taskauth.ErrTokenExpired)
	})

	t.Run("garbage is malformed", func(t *testing.T) {
		_, err := codec.Decode("definitely not a jwt")
		require.Error(t, err)
		assert.True(t, taskauth.IsMalformedError(err))
		assert.False(t, taskauth.IsTokenExpiredError(err))
	})

	t.Run("wrong signing key is invalid", func(t *testing.T) {
		other := taskauth.NewTokenCodec([]byte("other-signing-key"), "test-issuer", nil)
		tokenString, err := other.Encode("user-123", time.Hour)
		require.NoError(t, err)

		_, err = codec.Decode(tokenString)
		require.Error(t, err)
		assert.False(t, taskauth.IsTokenExpiredError(err))
		assert.False(t, taskauth.IsMalformedError(err))
	})

	t.Run("issuer mismatch is invalid", func(t *testing.T) {
		other := taskauth.NewTokenCodec([]byte("test-signing-key"), "someone-else", nil)
		tokenString, err := other.Encode("user-123", time.Hour)
		require.NoError(t, err)

		_, err = codec.Decode(tokenString)
		assert.Error(t, err)
	})

	t.Run("missing subject is invalid", func(t *testing.T) {
		tokenString, err := codec.Encode("", time.Hour)
		require.NoError(t, err)

		_, err = codec.Decode(tokenString)
		assert.ErrorIs(t, err, taskauth.ErrTokenInvalid)
	})
}

func TestTokenCodecValidate(t *testing.T) {
	codec := taskauth.NewTokenCodec([]byte("test-signing-key"), "", nil)

	tokenString, err := codec.Encode("user-123", time.Hour)
	require.NoError(t, err)

	claims, err := codec.Validate(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID())
	assert.False(t, claims.Expires().IsZero())
}
