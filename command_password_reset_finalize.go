package taskauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// FinalizePasswordResetMessage closes the reset flow. The reset token and
// digit code must both match before the new password is written.
type FinalizePasswordResetMessage struct {
	ResetToken string `json:"reset_token"`
	Code       string `json:"code"`
	Password   string `json:"password"`
}

func (p FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

type FinalizePasswordResetHandler struct {
	auth   *AuthService
	logger Logger
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(auth *AuthService) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		auth:   auth,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.auth.VerifyResetCode(ctx, event.ResetToken, event.Code)
	if err != nil {
		return err
	}

	updated, err := h.auth.SetPassword(ctx, user.ID, event.Password)
	if err != nil {
		return err
	}
	if !updated {
		return goerrors.New("account no longer exists", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	}

	h.logger.Info("password reset completed for user %s", user.ID)

	return nil
}
