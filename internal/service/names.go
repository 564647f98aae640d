package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"go-case-records/internal/normalize"
)

// NameResolver maps user ids to display names through a small expiring
// cache in front of the users table.
type NameResolver struct {
	source nameSource
	cache  *expirable.LRU[string, string]
}

func NewNameResolver(source nameSource, size int, ttl time.Duration) *NameResolver {
	if size <= 0 {
		size = 512
	}
	return &NameResolver{
		source: source,
		cache:  expirable.NewLRU[string, string](size, nil, ttl),
	}
}

// Names returns what is known about ids. Lookup failures are logged and the
// missing ids are left out, so callers fall back to the raw id.
func (r *NameResolver) Names(ctx context.Context, ids []string) normalize.Names {
	names := make(normalize.Names, len(ids))
	missing := make([]string, 0)
	for _, id := range ids {
		if name, ok := r.cache.Get(id); ok {
			names[id] = name
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return names
	}

	found, err := r.source.NamesByIDs(ctx, missing)
	if err != nil {
		slog.Warn("resolve display names", "ids", len(missing), "error", err)
		return names
	}
	for id, name := range found {
		r.cache.Add(id, name)
		names[id] = name
	}
	return names
}

// Forget drops a cached name after a profile change.
func (r *NameResolver) Forget(id string) {
	r.cache.Remove(id)
}
