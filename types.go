package taskauth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetConfirmTokenTTL() time.Duration
	GetResetTokenTTL() time.Duration
	GetCodeTTL() time.Duration
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Mailer delivers verification and reset notifications. Outbound delivery is
// an external concern; the default implementation only logs.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code, confirmToken string) error
	SendResetCode(ctx context.Context, email, code, resetToken string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

type logMailer struct {
	logger Logger
}

// NewLogMailer returns a Mailer that prints notifications instead of
// delivering them. Meant for development and tests.
func NewLogMailer(logger Logger) Mailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &logMailer{logger: logger}
}

func (m *logMailer) SendVerificationCode(_ context.Context, email, code, confirmToken string) error {
	m.logger.Info("verification email to=%s code=%s token=%s", email, code, confirmToken)
	return nil
}

func (m *logMailer) SendResetCode(_ context.Context, email, code, resetToken string) error {
	m.logger.Info("reset email to=%s code=%s token=%s", email, code, resetToken)
	return nil
}
