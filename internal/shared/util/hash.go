package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashTenantKey returns a filesystem-safe identifier for a tenant ID.
// Blob paths are segmented by this value so tenant IDs never appear on disk.
func HashTenantKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
