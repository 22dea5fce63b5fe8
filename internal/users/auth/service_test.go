// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/chaptra/internal/platform/apperr"
	"github.com/taibuivan/chaptra/internal/platform/sec"
	"github.com/taibuivan/chaptra/internal/users/auth"
)

// # Test Doubles

// memoryUserRepository is an in-memory [auth.UserRepository] for unit tests.
type memoryUserRepository struct {
	byID map[string]*auth.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{byID: make(map[string]*auth.User)}
}

func (repo *memoryUserRepository) Create(_ context.Context, user *auth.User) error {
	for _, existing := range repo.byID {
		if existing.Email == user.Email {
			return apperr.Conflict("Resource already exists")
		}
	}
	clone := *user
	repo.byID[user.ID] = &clone
	return nil
}

func (repo *memoryUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := repo.byID[id]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	clone := *user
	return &clone, nil
}

func (repo *memoryUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range repo.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (repo *memoryUserRepository) SetCurrentToken(_ context.Context, userID string, tokenDigest *string) error {
	user, ok := repo.byID[userID]
	if !ok {
		return apperr.NotFound("Account")
	}
	user.CurrentToken = tokenDigest
	return nil
}

// stubTokenProvider issues deterministic tokens encoding the user ID.
type stubTokenProvider struct {
	issued int
}

func (provider *stubTokenProvider) GenerateAccessToken(userID, username, role string, _ time.Duration) (string, error) {
	provider.issued++
	return fmt.Sprintf("tok.%s.%s.%d", userID, role, provider.issued), nil
}

func (provider *stubTokenProvider) VerifyToken(tokenString string) (*sec.AuthClaims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 4 || parts[0] != "tok" {
		return nil, fmt.Errorf("stub: malformed token")
	}
	return &sec.AuthClaims{UserID: parts[1], Role: parts[2]}, nil
}

func newTestService() (*auth.Service, *memoryUserRepository) {
	repo := newMemoryUserRepository()
	return auth.NewService(repo, &stubTokenProvider{}), repo
}

// # Registration

/*
TestService_Register verifies enrollment and the duplicate-email guard.
*/
func TestService_Register(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	user, err := service.Register(ctx, auth.RegisterInput{
		Name:     "Tai",
		Email:    "tai@chaptra.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, sec.RoleUser, user.Role)
	assert.NotEqual(t, "correct-horse-battery", user.PasswordHash)

	// Same email again must be rejected with a Conflict
	_, err = service.Register(ctx, auth.RegisterInput{
		Name:     "Tai Again",
		Email:    "tai@chaptra.com",
		Password: "another-password",
	})
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
}

/*
TestService_RegisterVendor verifies the vendor role is granted.
*/
func TestService_RegisterVendor(t *testing.T) {
	service, _ := newTestService()

	vendor, err := service.RegisterVendor(context.Background(), auth.RegisterInput{
		Name:     "Bookhouse",
		Email:    "sales@bookhouse.jp",
		Password: "vendor-password",
	})
	require.NoError(t, err)
	assert.Equal(t, sec.RoleVendor, vendor.Role)
}

// # Sign-in & Session Guard

/*
TestService_SignIn verifies credential checks and token issuance.
*/
func TestService_SignIn(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	user, err := service.Register(ctx, auth.RegisterInput{
		Name:     "Tai",
		Email:    "tai@chaptra.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	t.Run("wrong_password", func(t *testing.T) {
		_, err := service.SignIn(ctx, auth.SignInInput{
			Email:    "tai@chaptra.com",
			Password: "wrong",
		})
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("unknown_email", func(t *testing.T) {
		_, err := service.SignIn(ctx, auth.SignInInput{
			Email:    "nobody@chaptra.com",
			Password: "correct-horse-battery",
		})
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("success_claims_session_slot", func(t *testing.T) {
		session, err := service.SignIn(ctx, auth.SignInInput{
			Email:    "tai@chaptra.com",
			Password: "correct-horse-battery",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, session.AccessToken)

		stored, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.CurrentToken)
		assert.Equal(t, sec.HashToken(session.AccessToken), *stored.CurrentToken)
	})
}

/*
TestService_VerifySession verifies the single-active-session policy.

A second sign-in supersedes the first token even though its JWT signature
and expiry are still valid.
*/
func TestService_VerifySession(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	user, err := service.Register(ctx, auth.RegisterInput{
		Name:     "Tai",
		Email:    "tai@chaptra.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	first, err := service.SignIn(ctx, auth.SignInInput{
		Email:    "tai@chaptra.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	// First token validates while it is the current one
	claims, err := service.VerifySession(ctx, first.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	// Second sign-in claims the session slot
	second, err := service.SignIn(ctx, auth.SignInInput{
		Email:    "tai@chaptra.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	// The first token is now superseded
	_, err = service.VerifySession(ctx, first.AccessToken)
	require.Error(t, err)
	assert.Equal(t, "SESSION_SUPERSEDED", apperr.As(err).Code)

	// The second token still validates
	_, err = service.VerifySession(ctx, second.AccessToken)
	assert.NoError(t, err)

	// Garbage tokens are plain Unauthorized, not superseded
	_, err = service.VerifySession(ctx, "not-a-token")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

/*
TestService_Logout verifies that sign-out invalidates the current token.
*/
func TestService_Logout(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	user, err := service.Register(ctx, auth.RegisterInput{
		Name:     "Tai",
		Email:    "tai@chaptra.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	session, err := service.SignIn(ctx, auth.SignInInput{
		Email:    "tai@chaptra.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	require.NoError(t, service.Logout(ctx, user.ID))

	_, err = service.VerifySession(ctx, session.AccessToken)
	require.Error(t, err)
	assert.Equal(t, "SESSION_SUPERSEDED", apperr.As(err).Code)
}
