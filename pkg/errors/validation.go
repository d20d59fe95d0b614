package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// MaxItems bounds the number of items accepted in a single layout request.
const MaxItems = 10000

// ValidateItemID validates an item identifier. Item IDs key the placement
// cache and appear in rendered output, so they must be short and printable.
//
// Validation rules:
//   - No empty IDs
//   - Maximum length of 256 characters
//   - No control characters or whitespace
func ValidateItemID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidItem, "item id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidItem, "item id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidItem, "item id %q contains whitespace or control characters", id)
		}
	}

	return nil
}

// ValidateHeight validates a measured item height.
func ValidateHeight(id string, h float64) error {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return New(ErrCodeInvalidItem, "item %q has a non-finite height", id)
	}
	if h < 0 {
		return New(ErrCodeInvalidItem, "item %q has a negative height %g", id, h)
	}
	return nil
}

// ValidateWidth validates a container width.
func ValidateWidth(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return New(ErrCodeInvalidInput, "container width must be a positive number, got %g", w)
	}
	return nil
}

// layoutIDRegex matches stored layout identifiers (content hashes and UUIDs).
var layoutIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// ValidateLayoutID validates the identifier of a stored layout.
func ValidateLayoutID(id string) error {
	if !layoutIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid layout id: %q", id)
	}
	return nil
}

// ValidatePath validates a relative output path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
