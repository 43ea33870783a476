package store

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// ComputeHash returns the lowercase hex SHA3-512 digest of b. It is used
// for both whole-file content and individual comment text, so the two
// kinds of fingerprint are directly comparable. Empty input is valid.
func ComputeHash(b []byte) string {
	sum := sha3.Sum512(b)
	return hex.EncodeToString(sum[:])
}
