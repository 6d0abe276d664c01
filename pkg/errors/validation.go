package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidatePositive rejects values below one. The name is used in the message.
func ValidatePositive(name string, v int) error {
	if v < 1 {
		return New(ErrCodeInvalidInput, "%s must be positive, got %d", name, v)
	}
	return nil
}

// ValidateNonNegative rejects negative values. The name is used in the message.
func ValidateNonNegative(name string, v int) error {
	if v < 0 {
		return New(ErrCodeInvalidInput, "%s must not be negative, got %d", name, v)
	}
	return nil
}

// ValidateFactor rejects non-positive or non-finite multipliers.
func ValidateFactor(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 1) {
		return New(ErrCodeInvalidInput, "%s must be a positive finite number, got %g", name, v)
	}
	return nil
}

// ValidateFilePath validates a local file path supplied on the command line or
// in a configuration file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidateFilePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateCacheURL validates a cache backend URL. Only redis:// and rediss://
// schemes are accepted.
func ValidateCacheURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "cache URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "redis://") && !strings.HasPrefix(rawURL, "rediss://") {
		return New(ErrCodeInvalidInput, "cache URL must use redis or rediss scheme")
	}
	return nil
}
