package errors

import (
	"strings"
	"unicode"
)

// Length limits for user-supplied names.
const (
	maxLayoutNameLength = 128
	maxWindowIDLength   = 256
)

// ValidateLayoutName validates a layout name for safety and correctness.
// Layout names become file names and database keys, so the rules reject
// anything that could be used for path traversal or key injection:
//   - No empty names
//   - No control characters
//   - No path separators or parent directory references
//   - Maximum length of 128 characters
func ValidateLayoutName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidLayout, "layout name cannot be empty")
	}

	if len(name) > maxLayoutNameLength {
		return New(ErrCodeInvalidLayout, "layout name too long (max %d characters)", maxLayoutNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLayout, "layout name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..", // Parent directory
		"/",  // Path separator
		"\\", // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidLayout, "layout name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateWindowID validates a window identifier supplied by a caller.
// An empty ID is allowed; the registry generates one.
func ValidateWindowID(id string) error {
	if len(id) > maxWindowIDLength {
		return New(ErrCodeInvalidArgument, "window id too long (max %d characters)", maxWindowIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidArgument, "window id contains invalid control characters")
		}
	}

	return nil
}
