// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken returns the SHA-256 hex digest of a token.
//
// # Why digest at rest?
//
// The account row stores only the digest of the currently valid bearer
// token. A database leak therefore never exposes a usable credential,
// while the session guard can still compare digests in constant length.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
