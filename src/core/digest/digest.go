package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Text returns the SHA-256 digest of the UTF-8 bytes of s as lowercase hex.
// The digest is used for dedup and audit of extracted artifacts, not for
// authentication.
func Text(s string) string {
	return Bytes([]byte(s))
}

// Bytes returns the SHA-256 digest of data as lowercase hex.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
