package taskauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// InitializePasswordResetMessage starts the reset flow for an account. The
// reset token returns to the caller while the digit code is mailed.
type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	ResetToken string `json:"reset_token"`
	Success    bool   `json:"success"`
}

type InitializePasswordResetHandler struct {
	auth   *AuthService
	mailer Mailer
	logger Logger
}

func NewInitializePasswordResetHandler(auth *AuthService, mailer Mailer) *InitializePasswordResetHandler {
	if mailer == nil {
		mailer = NewLogMailer(defLogger{})
	}
	return &InitializePasswordResetHandler{
		auth:   auth,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	code, err := h.auth.GenerateResetCode(ctx, event.Email)
	if err != nil {
		return err
	}

	token, err := h.auth.GenerateResetToken(ctx, event.Email)
	if err != nil {
		return err
	}

	if err := h.mailer.SendResetCode(ctx, event.Email, code, token); err != nil {
		h.logger.Error("reset code delivery failed: %v", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send reset code")
	}

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			ResetToken: token,
			Success:    true,
		})
	}

	return nil
}
