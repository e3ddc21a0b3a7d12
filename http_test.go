package taskauth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	taskauth "github.com/goliatone/go-taskauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestGuard(repo *stubRepo, service *taskauth.AuthService) *taskauth.Guard {
	cfg := &taskauth.SimpleConfig{
		SigningKey: "test-signing-key",
		Issuer:     "test-issuer",
	}
	return taskauth.NewGuard(service, repo, cfg)
}

func protectedHandler(called *bool) router.HandlerFunc {
	return func(ctx router.Context) error {
		*called = true
		return ctx.Next()
	}
}

func TestGuardProtected(t *testing.T) {
	repo := newStubRepo()
	service := newTestService(repo)
	guard := newTestGuard(repo, service)
	user := seedUser(t, repo, "guarded@example.com", "securePassword123!")

	t.Run("valid token loads the account", func(t *testing.T) {
		token, err := service.GenerateAccessToken(user.ID)
		require.NoError(t, err)

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer " + token)
		ctx.On("Context").Return(context.Background())
		ctx.On("Locals", "user", mock.Anything).Return(nil)
		ctx.On("SetContext", mock.Anything).Return()

		var loaded *taskauth.User
		ctx.On("Locals", "user:record", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
			loaded, _ = args.Get(1).(*taskauth.User)
		})

		var called bool
		err = guard.Protected()(protectedHandler(&called))(ctx)
		require.NoError(t, err)

		require.NotNil(t, loaded)
		assert.Equal(t, user.ID, loaded.ID)
		assert.True(t, ctx.NextCalled)
	})

	t.Run("missing token is a 401", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")
		ctx.On("Status", router.StatusUnauthorized).Return(ctx)

		var body map[string]any
		expectJSON(ctx, router.StatusUnauthorized, &body)

		var called bool
		err := guard.Protected()(protectedHandler(&called))(ctx)
		require.NoError(t, err)
		assert.False(t, called)
		assert.Equal(t, false, body["success"])
	})

	t.Run("expired token is a 401 with its own code", func(t *testing.T) {
		expired, err := service.Codec().Encode(user.ID.String(), -time.Minute)
		require.NoError(t, err)

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer " + expired)
		ctx.On("Status", router.StatusUnauthorized).Return(ctx)

		var body map[string]any
		expectJSON(ctx, router.StatusUnauthorized, &body)

		var called bool
		err = guard.Protected()(protectedHandler(&called))(ctx)
		require.NoError(t, err)
		assert.False(t, called)
		assert.Equal(t, "TOKEN_EXPIRED", body["code"])
	})

	t.Run("garbage token is a 401 malformed", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer not-a-token")
		ctx.On("Status", router.StatusUnauthorized).Return(ctx)

		var body map[string]any
		expectJSON(ctx, router.StatusUnauthorized, &body)

		var called bool
		err := guard.Protected()(protectedHandler(&called))(ctx)
		require.NoError(t, err)
		assert.False(t, called)
		assert.Equal(t, "TOKEN_MALFORMED", body["code"])
	})

	t.Run("valid token for a deleted account is a 401", func(t *testing.T) {
		ghost, err := service.GenerateAccessToken(uuid.New())
		require.NoError(t, err)

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer " + ghost)
		ctx.On("Context").Return(context.Background())
		ctx.On("Locals", "user", mock.Anything).Return(nil)
		ctx.On("Status", router.StatusUnauthorized).Return(ctx)

		var body map[string]any
		expectJSON(ctx, router.StatusUnauthorized, &body)

		var called bool
		err = guard.Protected()(protectedHandler(&called))(ctx)
		require.NoError(t, err)
		assert.False(t, called)
		assert.Equal(t, false, body["success"])
	})

	t.Run("account store failure is a 500", func(t *testing.T) {
		token, err := service.GenerateAccessToken(user.ID)
		require.NoError(t, err)

		repo.users.getErr = errors.New("connection refused")
		defer func() { repo.users.getErr = nil }()

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer " + token)
		ctx.On("Context").Return(context.Background())
		ctx.On("Locals", "user", mock.Anything).Return(nil)
		ctx.On("Status", router.StatusInternalServerError).Return(ctx)

		var body map[string]any
		expectJSON(ctx, router.StatusInternalServerError, &body)

		var called bool
		err = guard.Protected()(protectedHandler(&called))(ctx)
		require.NoError(t, err)
		assert.False(t, called)
		assert.Equal(t, false, body["success"])
	})
}
