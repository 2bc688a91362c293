package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// ETag computes a strong entity tag for a response body
func ETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
