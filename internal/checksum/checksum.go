// Package checksum computes the short content digests used as cache keys.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HexLength is the length of every digest returned by this package.
// Digests are a truncated SHA-256 hash: the shortening trades collision
// margin for readable cache file names, not security.
const HexLength = 16

// Bytes returns the digest of a byte slice.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:HexLength]
}

// Text returns the digest of a string.
func Text(s string) string {
	return Bytes([]byte(s))
}

// File returns the digest of a file's content.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil))[:HexLength], nil
}
