// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taibuivan/chaptra/internal/platform/apperr"
	"github.com/taibuivan/chaptra/internal/platform/database/schema"
	"github.com/taibuivan/chaptra/internal/platform/dberr"
)

// # PostgreSQL Repository

// userRepository implements the [UserRepository] interface using pgx.
type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a PostgreSQL backed account store.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

/*
Create persists a new account.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: apperr.Conflict on duplicate email, storage failures otherwise
*/
func (repository *userRepository) Create(context context.Context, user *User) error {

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)
	`,
		schema.UserAccount.Table,
		schema.UserAccount.ID,
		schema.UserAccount.Name,
		schema.UserAccount.Email,
		schema.UserAccount.PasswordHash,
		schema.UserAccount.Role,
	)

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
	)
	if err != nil {
		// Unique email violations surface as Conflict
		return dberr.Wrap(err, "create account")
	}

	return nil
}

/*
FindByID returns the account with the given ID.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *User: Hydrated account
  - error: apperr.NotFound on absent rows
*/
func (repository *userRepository) FindByID(context context.Context, id string) (*User, error) {
	return repository.findBy(context, schema.UserAccount.ID, id)
}

/*
FindByEmail returns the account with the given email.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account
  - error: apperr.NotFound on absent rows
*/
func (repository *userRepository) FindByEmail(context context.Context, email string) (*User, error) {
	return repository.findBy(context, schema.UserAccount.Email, email)
}

// findBy loads one account by an exact column match.
func (repository *userRepository) findBy(context context.Context, column, value string) (*User, error) {

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.UserAccount.ID,
		schema.UserAccount.Name,
		schema.UserAccount.Email,
		schema.UserAccount.PasswordHash,
		schema.UserAccount.Role,
		schema.UserAccount.CurrentToken,
		schema.UserAccount.CreatedAt,
		schema.UserAccount.UpdatedAt,
		schema.UserAccount.Table,
		column,
	)

	var user User
	err := repository.pool.QueryRow(context, query, value).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CurrentToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres: failed to find account: %w", err)
	}

	return &user, nil
}

/*
SetCurrentToken overwrites the account's current-token digest.

Description: The unconditional overwrite is the mechanism behind the
single-session policy; whatever token was valid before is invalid the
moment this statement commits.

Parameters:
  - context: context.Context
  - userID: string (UUID)
  - tokenDigest: *string (nil clears the token)

Returns:
  - error: apperr.NotFound if the account is missing
*/
func (repository *userRepository) SetCurrentToken(context context.Context, userID string, tokenDigest *string) error {

	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = NOW() WHERE %s = $2`,
		schema.UserAccount.Table,
		schema.UserAccount.CurrentToken,
		schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID,
	)

	result, err := repository.pool.Exec(context, query, tokenDigest, userID)
	if err != nil {
		return fmt.Errorf("postgres: failed to set current token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}
