package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds location ids accepted from files and HTTP requests.
const maxIDLength = 256

// ValidateLocationID checks that id is usable as a location identifier.
//
// The rules are conservative because ids end up in file names (diskv store)
// and cache keys:
//   - No empty ids
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateLocationID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "location id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "location id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "location id contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidID, "location id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidatePath validates a snapshot file path given on the command line or in
// configuration. Relative and absolute paths are both fine; null bytes and
// control characters are not.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	return nil
}
