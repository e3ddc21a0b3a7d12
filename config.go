package taskauth

import (
	"os"
	"strconv"
	"time"
)

// Default token lifetimes. Access tokens are stateless bearer credentials,
// refresh tokens are persisted and single-slot per user.
const (
	DefaultAccessTokenTTL  = 10800 * time.Second
	DefaultRefreshTokenTTL = 2592000 * time.Second
	DefaultConfirmTokenTTL = 3600 * time.Second
	DefaultResetTokenTTL   = 1800 * time.Second
	DefaultCodeTTL         = 600 * time.Second
)

// SimpleConfig is a plain value implementation of Config.
type SimpleConfig struct {
	SigningKey      string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ConfirmTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	CodeTTL         time.Duration
	ContextKey      string
	TokenLookup     string
	AuthScheme      string
	Issuer          string
}

var _ Config = (*SimpleConfig)(nil)

// ConfigFromEnv builds a SimpleConfig from the environment, falling back to
// defaults for anything unset. TTL variables are in seconds.
func ConfigFromEnv() *SimpleConfig {
	return &SimpleConfig{
		SigningKey:      envString("AUTH_SECRET_KEY", "secret_key"),
		AccessTokenTTL:  envSeconds("AUTH_ACCESS_TOKEN_TTL", DefaultAccessTokenTTL),
		RefreshTokenTTL: envSeconds("AUTH_REFRESH_TOKEN_TTL", DefaultRefreshTokenTTL),
		ConfirmTokenTTL: envSeconds("AUTH_CONFIRM_TOKEN_TTL", DefaultConfirmTokenTTL),
		ResetTokenTTL:   envSeconds("AUTH_RESET_TOKEN_TTL", DefaultResetTokenTTL),
		CodeTTL:         envSeconds("AUTH_CODE_TTL", DefaultCodeTTL),
		ContextKey:      envString("AUTH_CONTEXT_KEY", "user"),
		TokenLookup:     envString("AUTH_TOKEN_LOOKUP", "header:Authorization"),
		AuthScheme:      envString("AUTH_SCHEME", "Bearer"),
		Issuer:          envString("AUTH_ISSUER", ""),
	}
}

func (c *SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c *SimpleConfig) GetAccessTokenTTL() time.Duration {
	return ttlOrDefault(c.AccessTokenTTL, DefaultAccessTokenTTL)
}

func (c *SimpleConfig) GetRefreshTokenTTL() time.Duration {
	return ttlOrDefault(c.RefreshTokenTTL, DefaultRefreshTokenTTL)
}

func (c *SimpleConfig) GetConfirmTokenTTL() time.Duration {
	return ttlOrDefault(c.ConfirmTokenTTL, DefaultConfirmTokenTTL)
}

func (c *SimpleConfig) GetResetTokenTTL() time.Duration {
	return ttlOrDefault(c.ResetTokenTTL, DefaultResetTokenTTL)
}

func (c *SimpleConfig) GetCodeTTL() time.Duration {
	return ttlOrDefault(c.CodeTTL, DefaultCodeTTL)
}

func (c *SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

func (c *SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization"
	}
	return c.TokenLookup
}

func (c *SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c *SimpleConfig) GetIssuer() string { return c.Issuer }

func ttlOrDefault(ttl, def time.Duration) time.Duration {
	if ttl <= 0 {
		return def
	}
	return ttl
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}
