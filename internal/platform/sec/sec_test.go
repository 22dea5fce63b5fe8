// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/chaptra/internal/platform/sec"
)

// # Hashing

/*
TestHashPassword verifies the bcrypt roundtrip and rejection of wrong
passwords.
*/
func TestHashPassword(t *testing.T) {
	hash, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, sec.CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, sec.CheckPasswordHash("wrong password", hash))
	assert.False(t, sec.CheckPasswordHash("correct horse battery staple", "not-a-hash"))
}

/*
TestHashToken verifies digest determinism and shape. The session guard
compares these digests, so two calls must agree byte for byte.
*/
func TestHashToken(t *testing.T) {
	digest := sec.HashToken("bearer-token")

	assert.Len(t, digest, 64)
	assert.Equal(t, digest, sec.HashToken("bearer-token"))
	assert.NotEqual(t, digest, sec.HashToken("other-token"))
}

// # Roles

/*
TestUserRole_AtLeast verifies the admin > vendor > user hierarchy.
*/
func TestUserRole_AtLeast(t *testing.T) {
	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleVendor))
	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleUser))
	assert.True(t, sec.RoleVendor.AtLeast(sec.RoleUser))
	assert.True(t, sec.RoleUser.AtLeast(sec.RoleUser))

	assert.False(t, sec.RoleUser.AtLeast(sec.RoleVendor))
	assert.False(t, sec.RoleVendor.AtLeast(sec.RoleAdmin))
	assert.False(t, sec.UserRole("unknown").AtLeast(sec.RoleUser))
}

// # JWT Tokens

// writeKeyPair generates a throwaway RSA keypair as PEM files.
func writeKeyPair(t *testing.T) (privatePath, publicPath string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	directory := t.TempDir()
	privatePath = filepath.Join(directory, "jwt.pem")
	publicPath = filepath.Join(directory, "jwt.pub.pem")

	privateBlock := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	require.NoError(t, os.WriteFile(privatePath, privateBlock, 0o600))

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicBlock := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})
	require.NoError(t, os.WriteFile(publicPath, publicBlock, 0o600))

	return privatePath, publicPath
}

/*
TestTokenService verifies the RS256 sign-and-verify roundtrip, claim
propagation, and rejection of expired or foreign tokens.
*/
func TestTokenService(t *testing.T) {
	privatePath, publicPath := writeKeyPair(t)

	service, err := sec.NewTokenService(privatePath, publicPath, "chaptra.app")
	require.NoError(t, err)

	t.Run("roundtrip", func(t *testing.T) {
		token, err := service.GenerateAccessToken("user-1", "Reader", string(sec.RoleUser), time.Hour)
		require.NoError(t, err)

		claims, err := service.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "Reader", claims.Username)
		assert.Equal(t, string(sec.RoleUser), claims.Role)
		assert.Equal(t, "chaptra.app", claims.Issuer)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := service.GenerateAccessToken("user-1", "Reader", string(sec.RoleUser), -time.Minute)
		require.NoError(t, err)

		_, err = service.VerifyToken(token)
		assert.Error(t, err)
	})

	t.Run("foreign_signature", func(t *testing.T) {
		otherPrivate, otherPublic := writeKeyPair(t)
		other, err := sec.NewTokenService(otherPrivate, otherPublic, "chaptra.app")
		require.NoError(t, err)

		token, err := other.GenerateAccessToken("user-1", "Reader", string(sec.RoleUser), time.Hour)
		require.NoError(t, err)

		_, err = service.VerifyToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := service.VerifyToken("not.a.jwt")
		assert.Error(t, err)
	})
}
