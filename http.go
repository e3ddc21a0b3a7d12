package taskauth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-taskauth/middleware/jwtware"
)

// codecValidator adapts TokenCodec to the middleware's validator contract.
type codecValidator struct {
	codec *TokenCodec
}

func (v codecValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	return v.codec.Decode(tokenString)
}

// NewTokenValidator returns a validator the JWT middleware can consume.
func NewTokenValidator(codec *TokenCodec) jwtware.TokenValidator {
	return codecValidator{codec: codec}
}

// ContextEnricherAdapter adapts jwtware.AuthClaims back to TokenClaims and
// stores them in the standard context for downstream guard usage.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	tokenClaims, ok := claims.(*TokenClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, tokenClaims)
}

// Guard protects routes with bearer token checks backed by the account store.
type Guard struct {
	auth         *AuthService
	repo         RepositoryManager
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewGuard(auth *AuthService, repo RepositoryManager, cfg Config) *Guard {
	g := &Guard{
		auth:   auth,
		repo:   repo,
		cfg:    cfg,
		Logger: defLogger{},
	}
	g.ErrorHandler = g.defaultErrHandler
	return g
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	if logger != nil {
		g.Logger = logger
	}
	return g
}

// Protected builds the middleware chain for authenticated routes. The token
// is extracted per the configured lookup, validated, and the owning account
// loaded; handlers read the account through GetRouterUser.
func (g *Guard) Protected() router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler:   g.ErrorHandler,
		TokenValidator: NewTokenValidator(g.auth.Codec()),
		SigningKey: jwtware.SigningKey{
			Key:    []byte(g.cfg.GetSigningKey()),
			JWTAlg: "HS256",
		},
		AuthScheme:      g.cfg.GetAuthScheme(),
		ContextKey:      g.cfg.GetContextKey(),
		TokenLookup:     g.cfg.GetTokenLookup(),
		UserLoader:      g.loadUser,
		ContextEnricher: ContextEnricherAdapter,
	})
}

func (g *Guard) loadUser(ctx context.Context, userID string) (any, error) {
	user, err := g.repo.Users().GetByID(ctx, userID)
	if err != nil {
		if isRecordNotFound(err) {
			g.Logger.Warn("valid token for unknown user %s", userID)
			return nil, errors.New("account no longer exists", errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized)
		}
		g.Logger.Error("guard user lookup failed: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load account")
	}
	return user, nil
}

func (g *Guard) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error

	if err == jwtware.ErrJWTMissingOrMalformed {
		return c.Status(router.StatusUnauthorized).JSON(router.StatusUnauthorized, map[string]any{
			"success": false,
			"error":   "missing or malformed token",
		})
	}

	if IsTokenExpiredError(err) {
		richErr = ErrTokenExpired
	} else if IsMalformedError(err) {
		richErr = ErrTokenMalformed
	} else if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
			WithCode(errors.CodeUnauthorized)
	}

	status := StatusForError(richErr)
	if status == router.StatusUnauthorized {
		g.Logger.Warn("request rejected: %s", richErr.Message)
	} else {
		g.Logger.Error("guard failure: %s", richErr.Message)
	}

	return c.Status(status).JSON(status, map[string]any{
		"success": false,
		"error":   richErr.Message,
		"code":    richErr.TextCode,
	})
}

// StatusForError maps error categories to HTTP status codes.
func StatusForError(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return router.StatusInternalServerError
	}

	switch richErr.Category {
	case errors.CategoryAuth:
		return router.StatusUnauthorized
	case errors.CategoryNotFound:
		return router.StatusNotFound
	case errors.CategoryValidation, errors.CategoryBadInput:
		return router.StatusBadRequest
	case errors.CategoryConflict:
		return router.StatusConflict
	default:
		return router.StatusInternalServerError
	}
}
