package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// chunkSize bounds memory while hashing; uploads can be tens of megabytes.
const chunkSize = 1 << 20

// Compute streams the reader through sha256 and returns the lowercase hex
// digest. Identical byte content always yields the same fingerprint.
func Compute(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hashing content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
