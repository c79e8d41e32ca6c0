package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"algoryth/internal/common"
	"algoryth/internal/common/security"
	"algoryth/internal/domain/model"
	"algoryth/internal/platform/config"
	"algoryth/internal/platform/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuth(t *testing.T) (*AuthService, *memUserRepo, *memProfileRepo) {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: []byte("test-secret"), JWTExp: time.Hour}
	security.InitJWT()

	users := newMemUserRepo()
	profiles := newMemProfileRepo()
	return NewAuthService(users, profiles, database.NoTx{}), users, profiles
}

func codeOf(err error) string {
	var coded *common.CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	svc, users, profiles := setupAuth(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Name: "  Ada Lovelace ", Email: " Ada@Example.COM ", Password: "secret1"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Ada Lovelace", resp.User.Name)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, model.RoleUser, resp.User.Role)
	assert.True(t, resp.User.IsActive)

	stored, err := users.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.HashedPassword)

	profile, err := profiles.FindByUserID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultRating, profile.Rating)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := setupAuth(t)

	tests := []struct {
		name string
		req  RegisterRequest
		code string
	}{
		{"missing fields", RegisterRequest{Email: "a@b.co", Password: "secret1"}, common.CodeMissingRequiredFields},
		{"short name", RegisterRequest{Name: "A", Email: "a@b.co", Password: "secret1"}, common.CodeInvalidName},
		{"bad email", RegisterRequest{Name: "Ada", Email: "not-an-email", Password: "secret1"}, common.CodeInvalidEmail},
		{"short password", RegisterRequest{Name: "Ada", Email: "a@b.co", Password: "123"}, common.CodeInvalidPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, tt.code, codeOf(err))
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := setupAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Ada Again", Email: "ADA@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, common.CodeUserExists, codeOf(err))
}

func TestLogin(t *testing.T) {
	svc, users, _ := setupAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(ctx, LoginRequest{Email: "ADA@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		require.NotNil(t, resp.User.LastLogin)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, errWrong := svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "nope123"})
		_, errUnknown := svc.Login(ctx, LoginRequest{Email: "bob@example.com", Password: "secret1"})
		assert.ErrorIs(t, errWrong, common.ErrUnauthorized)
		assert.ErrorIs(t, errUnknown, common.ErrUnauthorized)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("disabled account", func(t *testing.T) {
		u, err := users.FindByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		u.IsActive = false
		users.Users[u.ID] = *u

		_, err = svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "secret1"})
		assert.ErrorIs(t, err, common.ErrForbidden)
		assert.Equal(t, common.CodeAccountDisabled, codeOf(err))
	})
}

func TestVerify(t *testing.T) {
	svc, _, _ := setupAuth(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.Verify(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	_, err = svc.Verify(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
