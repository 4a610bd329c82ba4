package errors

import (
	"strings"
	"unicode"
)

// maxStepIDLength bounds step ids so they stay usable as labels and edge ids.
const maxStepIDLength = 256

// ValidateStepID validates a step id typed by the user.
//
// The rules are intentionally conservative:
//   - No empty or whitespace-only ids
//   - No leading or trailing whitespace
//   - No control characters
//   - Maximum length of 256 characters
func ValidateStepID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidStepID, "Step ID cannot be empty")
	}

	if len(id) > maxStepIDLength {
		return New(ErrCodeInvalidStepID, "Step ID too long (max %d characters)", maxStepIDLength)
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidStepID, "Step ID cannot start or end with whitespace")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidStepID, "Step ID contains invalid control characters")
		}
	}

	return nil
}

// ValidateExportName validates a file name chosen for an export.
// It must be a plain base name without path components.
func ValidateExportName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "file name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "file name cannot contain path separators")
	}

	if name == "." || name == ".." || strings.Contains(name, "\x00") {
		return New(ErrCodeInvalidInput, "invalid file name: %q", name)
	}

	return nil
}
