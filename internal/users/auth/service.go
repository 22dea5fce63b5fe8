// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the identity and access management system.

It handles user registration, secure password hashing, and the
single-session-per-account policy built on top of RSA-signed JWTs.

Architecture:

  - Service: Orchestrates business logic (Register, SignIn, VerifySession).
  - Repository: Abstracted interface for PostgreSQL account storage.
  - Security: Leverages Bcrypt and RSA-signed JWTs via the sec package.

A sign-in overwrites the account's stored token digest, so at most one
bearer token per account is ever valid.
*/
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/chaptra/internal/platform/apperr"
	"github.com/taibuivan/chaptra/internal/platform/constants"
	"github.com/taibuivan/chaptra/internal/platform/sec"
	"github.com/taibuivan/chaptra/pkg/uuidv7"
)

// # Contracts & Types

// TokenProvider defines the contract for generating and verifying security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given user.
	//
	// # Parameters
	//   - userID: The ID of the account.
	//   - username: The display name of the account.
	//   - role: The role of the account.
	//   - timeToLive: The duration before the token expires.
	//
	// # Returns
	//   - A signed JWT string, or an err if signing fails.
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)

	// VerifyToken checks the signature and validity of a JWT string.
	VerifyToken(tokenString string) (*sec.AuthClaims, error)
}

// Service implements account authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, sign-in,
// or session guard logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	tokenProvider  TokenProvider
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(userRepo UserRepository, tokenProv TokenProvider) *Service {
	return &Service{
		userRepository: userRepo,
		tokenProvider:  tokenProv,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new reader account.

Description: Deep-enrollment of a new member with password hashing and
the default reader role.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - err: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	return service.register(context, input, sec.RoleUser)
}

/*
RegisterVendor enrolls a new vendor account.

Description: Identical to [Register] but grants the vendor role, which
allows publishing books. Reachable only through the admin surface.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - err: Conflict (if identity exists) or storage errors
*/
func (service *Service) RegisterVendor(context context.Context, input RegisterInput) (*User, error) {
	return service.register(context, input, sec.RoleVendor)
}

// register is the shared enrollment path for both roles.
func (service *Service) register(context context.Context, input RegisterInput, role sec.UserRole) (*User, error) {

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.userRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuidv7.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Role:         role,
	}

	// Persist the user to the database
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	return user, nil
}

// # Authentication Flow

// SignInInput defines credentials for an authentication attempt.
type SignInInput struct {
	Email    string
	Password string
}

// Session represents a successfully established user session.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *User
}

/*
SignIn validates credentials and issues the account's single active token.

Description: Verifies identity with constant-time password comparison,
issues a signed JWT, and records its digest as the account's current
token. Any previously issued token stops validating at that moment.

Parameters:
  - context: context.Context
  - input: SignInInput

Returns:
  - *Session: Transport-ready session identifiers
  - err: Unauthorized or internal failures
*/
func (service *Service) SignIn(context context.Context, input SignInInput) (*Session, error) {

	// ── 1. Resolve Identity ──────────────────────────────────────────────

	// If (err != nil) the user does not exist. Generic message to prevent enumeration.
	user, err := service.userRepository.FindByEmail(context, input.Email)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Verify password hash using constant-time comparison in bcrypt to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// ── 2. Issue Token ───────────────────────────────────────────────────

	accessToken, err := service.tokenProvider.GenerateAccessToken(
		user.ID, user.Name, string(user.Role), constants.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	// ── 3. Claim the Session Slot ────────────────────────────────────────

	// Storing the digest supersedes any earlier session for this account.
	digest := sec.HashToken(accessToken)
	if err := service.userRepository.SetCurrentToken(context, user.ID, &digest); err != nil {
		return nil, fmt.Errorf("auth_service_session_claim_failed: %w", err)
	}

	user.CurrentToken = &digest

	return &Session{
		AccessToken: accessToken,
		ExpiresAt:   time.Now().Add(constants.AccessTokenTTL),
		User:        user,
	}, nil
}

/*
Logout clears the account's current token.

Description: Idempotent; the account ends signed out regardless of prior state.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - err: Storage failures
*/
func (service *Service) Logout(context context.Context, userID string) error {
	if err := service.userRepository.SetCurrentToken(context, userID, nil); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// # Session Guard

/*
VerifySession authenticates a bearer token against the single-session policy.

Description: Validates the JWT signature and expiry, then compares the
token's digest with the account's stored current token. A mismatch means
a newer sign-in claimed the session slot.

Parameters:
  - context: context.Context
  - tokenString: string (raw bearer token)

Returns:
  - *sec.AuthClaims: Verified claims for the request context
  - err: Unauthorized (bad token) or SessionSuperseded (slot claimed elsewhere)
*/
func (service *Service) VerifySession(context context.Context, tokenString string) (*sec.AuthClaims, error) {

	// ── 1. Cryptographic Validity ────────────────────────────────────────

	claims, err := service.tokenProvider.VerifyToken(tokenString)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	// ── 2. Single-Session Check ──────────────────────────────────────────

	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Account no longer exists")
	}

	digest := sec.HashToken(tokenString)
	if user.CurrentToken == nil || *user.CurrentToken != digest {
		return nil, apperr.SessionSuperseded()
	}

	return claims, nil
}

// # Profile

/*
Me returns the authenticated account's profile.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *User: Hydrated account
  - err: NotFound or storage failures
*/
func (service *Service) Me(context context.Context, userID string) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}
