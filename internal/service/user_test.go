package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typingmaster/backend/internal/auth"
	"github.com/typingmaster/backend/internal/config"
	"github.com/typingmaster/backend/internal/domain"
)

func newUserService(store *memStore) *UserService {
	tokens := auth.NewTokenManager(&config.AuthConfig{Secret: "test-secret", TokenTTL: time.Hour})
	return NewUserService(store, tokens, discardLogger())
}

func TestRegister(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newUserService(store)

	resp, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "  Ada@Example.COM ",
		Username: "ada",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, 1, resp.User.Level)
	assert.Empty(t, resp.User.PasswordHash, "hash never leaves the service")

	stored, err := store.GetUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "hunter2hunter2", stored.PasswordHash)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	svc := newUserService(newMemStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{Email: "a@b.c", Username: "a", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Register(ctx, domain.RegisterRequest{Email: "", Username: "a", Password: "longenough"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc := newUserService(newMemStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{Email: "a@b.c", Username: "first", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, domain.RegisterRequest{Email: "a@b.c", Username: "second", Password: "longenough"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newUserService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{Email: "a@b.c", Username: "ada", Password: "longenough"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, domain.LoginRequest{Email: "a@b.c", Password: "longenough"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada", resp.User.Username)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "a@b.c", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// An unknown email yields the same error as a bad password
	_, err = svc.Login(ctx, domain.LoginRequest{Email: "nobody@b.c", Password: "longenough"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
