package taskauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// RequestVerificationMessage kicks off the email verification flow. The
// confirm token travels back to the client through OnResponse while the
// digit code reaches the user out of band.
type RequestVerificationMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *RequestVerificationResponse)
}

func (e RequestVerificationMessage) Type() string { return "user.verification_request" }

type RequestVerificationResponse struct {
	ConfirmToken string `json:"confirm_token"`
	Success      bool   `json:"success"`
}

type RequestVerificationHandler struct {
	auth   *AuthService
	mailer Mailer
	logger Logger
}

func NewRequestVerificationHandler(auth *AuthService, mailer Mailer) *RequestVerificationHandler {
	if mailer == nil {
		mailer = NewLogMailer(defLogger{})
	}
	return &RequestVerificationHandler{
		auth:   auth,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (h *RequestVerificationHandler) WithLogger(logger Logger) *RequestVerificationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestVerificationHandler) Execute(ctx context.Context, event RequestVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestVerificationHandler) execute(ctx context.Context, event RequestVerificationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	code, err := h.auth.GenerateVerificationCode(ctx, event.Email)
	if err != nil {
		return err
	}

	token, err := h.auth.GenerateConfirmToken(ctx, event.Email)
	if err != nil {
		return err
	}

	if err := h.mailer.SendVerificationCode(ctx, event.Email, code, token); err != nil {
		h.logger.Error("verification code delivery failed: %v", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send verification code")
	}

	if event.OnResponse != nil {
		event.OnResponse(&RequestVerificationResponse{
			ConfirmToken: token,
			Success:      true,
		})
	}

	return nil
}

// ConfirmAccountMessage completes the email verification flow by checking
// the confirm token and code pair, then flagging the account verified.
type ConfirmAccountMessage struct {
	ConfirmToken string `json:"confirm_token"`
	Code         string `json:"code"`
	OnResponse   func(user *User)
}

func (e ConfirmAccountMessage) Type() string { return "user.verification_confirm" }

type ConfirmAccountHandler struct {
	auth   *AuthService
	logger Logger
}

func NewConfirmAccountHandler(auth *AuthService) *ConfirmAccountHandler {
	return &ConfirmAccountHandler{
		auth:   auth,
		logger: defLogger{},
	}
}

func (h *ConfirmAccountHandler) WithLogger(logger Logger) *ConfirmAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmAccountHandler) Execute(ctx context.Context, event ConfirmAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmAccountHandler) execute(ctx context.Context, event ConfirmAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.auth.VerifyVerificationCode(ctx, event.ConfirmToken, event.Code)
	if err != nil {
		return err
	}

	updated, err := h.auth.VerifyUserEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if !updated {
		return goerrors.New("could not mark account as verified", goerrors.CategoryInternal)
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
