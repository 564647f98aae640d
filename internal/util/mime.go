package util

import (
	"bufio"
	"io"
	"net/http"
	"strings"
)

// SniffMIME detects the content type of r from its first 512 bytes and
// returns a reader that still yields the full stream.
func SniffMIME(r io.Reader) (string, io.Reader, error) {
	buffered := bufio.NewReaderSize(r, 512)
	head, err := buffered.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", nil, err
	}
	return http.DetectContentType(head), buffered, nil
}

// MIMEAllowed reports whether mimeType matches one of allowed. An entry
// ending in "/*" matches the whole family. An empty list allows everything.
func MIMEAllowed(mimeType string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}

	base := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}

	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == base {
			return true
		}
		if family, ok := strings.CutSuffix(candidate, "/*"); ok && strings.HasPrefix(base, family+"/") {
			return true
		}
	}
	return false
}

// IsInlineMIME reports whether browsers can render the type in a preview frame.
func IsInlineMIME(mimeType string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(cleaned, "image/") ||
		strings.HasPrefix(cleaned, "application/pdf") ||
		strings.HasPrefix(cleaned, "text/plain")
}
