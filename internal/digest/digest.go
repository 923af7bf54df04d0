// Package digest streams a file through SHA-512 and returns its lowercase
// hex digest. It is the sole place in comstar that touches crypto/sha512,
// so the digest format (algorithm, encoding, buffer size) stays a single
// decision.
package digest

import (
	"crypto/sha512"
	"encoding/hex"
	"io"
	"os"

	"github.com/bsundsrud/comstar/internal/comstarerr"
)

// bufSize matches the teacher's streaming read buffer; large enough to
// amortize syscalls, small enough to keep many concurrent hashes cheap.
const bufSize = 64 * 1024

// HexLen is the length of a valid digest: two hex characters per SHA-512
// byte.
const HexLen = sha512.Size * 2

// Hash streams path through SHA-512 and returns the lowercase hex digest.
func Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", comstarerr.IO("opening "+path+" for hashing", err)
	}
	defer f.Close()

	h := sha512.New()
	buf := make([]byte, bufSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", comstarerr.IO("hashing "+path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Valid reports whether s has the shape of a SHA-512 hex digest: 128
// lowercase hex characters, no separators.
func Valid(s string) bool {
	if len(s) != HexLen {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
