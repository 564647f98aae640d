package util

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"go-case-records/pkg/apierror"
)

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

var extensionPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// SanitizeFilename cleans an uploaded file name for use in a
// Content-Disposition header. It never becomes part of a storage path.
func SanitizeFilename(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", apierror.Validation("filename cannot be empty", "")
	}

	builder := strings.Builder{}
	builder.Grow(len(trimmed))
	for _, char := range trimmed {
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := strings.TrimSpace(invalidFilenameChars.ReplaceAllString(builder.String(), "_"))
	cleaned = strings.TrimLeft(cleaned, ".")
	if cleaned == "" {
		return "", apierror.Validation("filename is invalid after sanitization", trimmed)
	}

	// Truncate by runes to avoid splitting multi-byte characters.
	runes := []rune(cleaned)
	if len(runes) > 255 {
		runes = runes[:255]
	}

	return string(runes), nil
}

// Extension returns the lower-cased extension of name including the dot,
// or "" when it is missing or not a plain alphanumeric suffix.
func Extension(name string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
	if !extensionPattern.MatchString(ext) {
		return ""
	}
	return ext
}

// AttachmentHeader builds a Content-Disposition value for name.
func AttachmentHeader(disposition string, name string) string {
	safe, err := SanitizeFilename(name)
	if err != nil {
		safe = "download"
	}
	return fmt.Sprintf("%s; filename=%q", disposition, safe)
}

// isInvisibleUnicode reports zero-width and other format characters.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\u200E', '\u200F', '\u2060', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Cf, r)
}
