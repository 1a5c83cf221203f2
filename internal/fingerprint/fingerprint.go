// Package fingerprint computes the content-addressed keys used to dedupe analyses.
package fingerprint

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidInput is returned for input that cannot be fingerprinted.
var ErrInvalidInput = errors.New("invalid fingerprint input")

// Text returns the SHA-256 hex digest of the normalized text.
// Case and surrounding whitespace do not change the result.
func Text(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", ErrInvalidInput)
	}
	return digest([]byte(NormalizeText(text))), nil
}

// Image returns the SHA-256 hex digest of the raw bytes.
// A nil buffer is rejected; an empty one is hashed like any other.
func Image(data []byte) (string, error) {
	if data == nil {
		return "", fmt.Errorf("%w: image buffer is nil", ErrInvalidInput)
	}
	return digest(data), nil
}

// NormalizeText trims and lowercases text before hashing.
func NormalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Short returns a log-safe prefix of a fingerprint.
func Short(fp string) string {
	if len(fp) <= 12 {
		return fp
	}
	return fp[:12]
}

func digest(b []byte) string {
	hash := sha256.Sum256(b)
	return fmt.Sprintf("%x", hash)
}
