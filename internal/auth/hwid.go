package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeHWID canonicalizes a client-supplied hardware id so that trivial
// formatting differences don't break an existing binding.
func NormalizeHWID(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// HashHWID returns the hex SHA-256 digest of the canonical hardware id.
func HashHWID(raw string) string {
	h := sha256.Sum256([]byte(NormalizeHWID(raw)))
	return hex.EncodeToString(h[:])
}
