// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"time"

	"github.com/taibuivan/chaptra/internal/platform/sec"
)

// # Account Entity

// User is an account record: reader, vendor, or administrator.
//
// # Single-Session Policy
//
// CurrentToken holds the SHA-256 digest of the most recently issued bearer
// token and is the single source of truth for "is this token still valid".
// A second sign-in overwrites it, which invalidates the first session.
type User struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
	Role  sec.UserRole `json:"role"`

	// PasswordHash is the bcrypt digest; never serialized.
	PasswordHash string `json:"-"`

	// CurrentToken is the digest of the latest issued session token,
	// nil when signed out; never serialized.
	CurrentToken *string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Field Identifiers
//
// JSON field names used by validators and handlers.

const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
)
