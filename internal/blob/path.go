package blob

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"go-case-records/internal/model"
)

// resolver maps object names onto files under one bucket directory and
// refuses anything that would escape it.
type resolver struct {
	rootAbs string
}

func newResolver(root string) (*resolver, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("bucket root cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve bucket root: %w", err)
	}

	return &resolver{rootAbs: rootAbs}, nil
}

func (r *resolver) resolve(object string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(object), `\`, "/")
	normalized = strings.TrimPrefix(normalized, "/")
	if normalized == "" {
		return "", fmt.Errorf("%w: empty object name", model.ErrInvalidPath)
	}

	if hasControlCharacters(normalized) {
		return "", fmt.Errorf("%w: object name contains invalid characters", model.ErrInvalidPath)
	}

	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." || segment == "." || segment == "" {
			return "", fmt.Errorf("%w: %q", model.ErrInvalidPath, object)
		}
	}

	resolved, err := filepath.Abs(filepath.Join(r.rootAbs, filepath.FromSlash(normalized)))
	if err != nil {
		return "", fmt.Errorf("resolve object path: %w", err)
	}

	if !isWithinRoot(r.rootAbs, resolved) || resolved == r.rootAbs {
		return "", fmt.Errorf("%w: %q is outside the bucket", model.ErrInvalidPath, object)
	}

	return resolved, nil
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}

func isWithinRoot(rootAbs string, candidateAbs string) bool {
	if candidateAbs == rootAbs {
		return true
	}
	return strings.HasPrefix(candidateAbs, rootAbs+string(filepath.Separator))
}
