// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "context"

// # Account Data Access

// UserRepository defines the data access contract for accounts.
type UserRepository interface {

	/*
		Create persists a new account.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Storage failure (Conflict on duplicate email)
	*/
	Create(context context.Context, user *User) error

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *User: Hydrated account
		  - error: ErrNotFound if missing
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated account
		  - error: ErrNotFound if missing
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		SetCurrentToken overwrites the account's current-token digest.
		Passing nil clears it (logout).

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - tokenDigest: *string (SHA-256 hex digest, or nil)

		Returns:
		  - error: ErrNotFound if the account is missing
	*/
	SetCurrentToken(context context.Context, userID string, tokenDigest *string) error
}
