package taskauth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type AuthControllerRoutes struct {
	Login                string
	Logout               string
	Refresh              string
	Register             string
	VerificationRequest  string
	VerificationConfirm  string
	PasswordResetRequest string
	PasswordResetConfirm string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Auth         *AuthService
	Mailer       Mailer
	Routes       *AuthControllerRoutes
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AuthControllerRoutes{
			Login:                "/login",
			Logout:               "/logout",
			Refresh:              "/refresh",
			Register:             "/register",
			VerificationRequest:  "/verify-email/request",
			VerificationConfirm:  "/verify-email/confirm",
			PasswordResetRequest: "/password-reset/request",
			PasswordResetConfirm: "/password-reset/confirm",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auth == nil {
		panic("Missing AuthService in auth controller...")
	}

	if c.Mailer == nil {
		c.Mailer = NewLogMailer(c.Logger)
	}

	return c
}

func WithAuthControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthControllerService(auth *AuthService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auth = auth
		return c
	}
}

func WithAuthControllerMailer(mailer Mailer) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Mailer = mailer
		return c
	}
}

func WithAuthControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// RegisterAuthRoutes wires the authentication endpoints. Logout needs the
// guard since it acts on the authenticated user.
func RegisterAuthRoutes[T any](app router.Router[T], guard *Guard, opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")
	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")
	app.Post(controller.Routes.Refresh, controller.RefreshPost).
		SetName("auth.refresh")
	app.Post(controller.Routes.Logout, controller.LogoutPost, guard.Protected()).
		SetName("auth.logout")

	app.Post(controller.Routes.VerificationRequest, controller.VerificationRequestPost).
		SetName("auth.verify-email.request")
	app.Post(controller.Routes.VerificationConfirm, controller.VerificationConfirmPost).
		SetName("auth.verify-email.confirm")

	app.Post(controller.Routes.PasswordResetRequest, controller.PasswordResetRequestPost).
		SetName("auth.pwd-reset.request")
	app.Post(controller.Routes.PasswordResetConfirm, controller.PasswordResetConfirmPost).
		SetName("auth.pwd-reset.confirm")
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	Name            string `form:"name" json:"name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	Gender          string `form:"gender" json:"gender"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Length(10, 15)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: %v", err)
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	var created *User
	req := RegisterUserMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Gender:   payload.Gender,
		Password: payload.Password,
		OnResponse: func(user *User) {
			created = user
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error: %v", err)
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"success": true,
		"user":    created,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	user, err := a.Auth.ValidateLogin(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.respondError(ctx, err)
	}

	accessToken, err := a.Auth.GenerateAccessToken(user.ID)
	if err != nil {
		return a.respondError(ctx, err)
	}

	refreshToken, err := a.Auth.GenerateRefreshToken(ctx.Context(), user.ID)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":       true,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user":          user,
	})
}

// RefreshRequest carries the refresh token to trade for a new access token
type RefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	payload := new(RefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	userID, err := a.Auth.VerifyRefreshToken(ctx.Context(), payload.RefreshToken)
	if err != nil {
		return a.respondError(ctx, err)
	}

	accessToken, err := a.Auth.GenerateAccessToken(userID)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":      true,
		"access_token": accessToken,
	})
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	userID, ok := UserIDFromRouter(ctx, "")
	if !ok {
		return a.respondError(ctx, goerrors.New("no authenticated user", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized))
	}

	cleared, err := a.Auth.InvalidateRefreshToken(ctx.Context(), userID)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"cleared": cleared,
	})
}

// EmailPayload is shared by the flows that start from an email address
type EmailPayload struct {
	Email string `form:"email" json:"email"`
}

func (r EmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) VerificationRequestPost(ctx router.Context) error {
	payload := new(EmailPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	var res *RequestVerificationResponse
	req := RequestVerificationMessage{
		Email: payload.Email,
		OnResponse: func(resp *RequestVerificationResponse) {
			res = resp
		},
	}

	handler := NewRequestVerificationHandler(a.Auth, a.Mailer).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("verification request error: %v", err)
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":       true,
		"confirm_token": res.ConfirmToken,
	})
}

// CodeConfirmPayload carries a token and code pair
type CodeConfirmPayload struct {
	ConfirmToken string `form:"confirm_token" json:"confirm_token"`
	Code         string `form:"code" json:"code"`
}

func (r CodeConfirmPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ConfirmToken, validation.Required),
		validation.Field(&r.Code, validation.Required, validation.Length(VerificationCodeLength, VerificationCodeLength), is.Digit),
	)
}

func (a *AuthController) VerificationConfirmPost(ctx router.Context) error {
	payload := new(CodeConfirmPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	var verified *User
	req := ConfirmAccountMessage{
		ConfirmToken: payload.ConfirmToken,
		Code:         payload.Code,
		OnResponse: func(user *User) {
			verified = user
		},
	}

	handler := NewConfirmAccountHandler(a.Auth).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("verification confirm error: %v", err)
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"user":    verified,
	})
}

func (a *AuthController) PasswordResetRequestPost(ctx router.Context) error {
	payload := new(EmailPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	var res *InitializePasswordResetResponse
	req := InitializePasswordResetMessage{
		Email: payload.Email,
		OnResponse: func(resp *InitializePasswordResetResponse) {
			res = resp
		},
	}

	handler := NewInitializePasswordResetHandler(a.Auth, a.Mailer).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset request error: %v", err)
		return a.respondError(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= PASSWORD RESET ======")
		fmt.Println(print.MaybePrettyJSON(res))
		fmt.Println("=============================")
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":     true,
		"reset_token": res.ResetToken,
	})
}

// PasswordResetConfirmPayload closes the reset flow
type PasswordResetConfirmPayload struct {
	ResetToken      string `form:"reset_token" json:"reset_token"`
	Code            string `form:"code" json:"code"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

func (r PasswordResetConfirmPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ResetToken, validation.Required),
		validation.Field(&r.Code, validation.Required, validation.Length(VerificationCodeLength, VerificationCodeLength), is.Digit),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) PasswordResetConfirmPost(ctx router.Context) error {
	payload := new(PasswordResetConfirmPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	req := FinalizePasswordResetMessage{
		ResetToken: payload.ResetToken,
		Code:       payload.Code,
		Password:   payload.Password,
	}

	handler := NewFinalizePasswordResetHandler(a.Auth).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset confirm error: %v", err)
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
	})
}

func (a *AuthController) respondError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := StatusForError(richErr)
	return ctx.JSON(status, map[string]any{
		"success": false,
		"error":   richErr.Message,
		"code":    richErr.TextCode,
	})
}

func (a *AuthController) respondValidation(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"success":    false,
		"error":      "validation failed",
		"validation": FormatValidationErrorToMap(err),
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return fmt.Errorf("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	status := StatusForError(err)
	return c.JSON(status, map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}
