package cache

import (
	"context"
	"regexp"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nakanaka07/kueccha/internal/domain/providers"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryAdapter implements the CacheProvider interface with an in-process
// LRU. This is the primary cache: POI data lives only for the TTL of one
// fetch cycle and never survives a process restart.
type MemoryAdapter struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

// NewMemoryAdapter creates an in-memory cache holding at most maxEntries
// values.
func NewMemoryAdapter(maxEntries int) (*MemoryAdapter, error) {
	if maxEntries <= 0 {
		maxEntries = 128
	}
	entries, err := lru.New[string, memoryEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &MemoryAdapter{
		entries: entries,
		now:     time.Now,
	}, nil
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	entry, ok := a.entries.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && a.now().After(entry.expiresAt) {
		a.entries.Remove(key)
		return nil, providers.ErrCacheMiss
	}
	return entry.data, nil
}

// Set stores a value in cache with an expiration. A non-positive ttl keeps
// the entry until it is evicted or deleted.
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{data: value}
	if ttl > 0 {
		entry.expiresAt = a.now().Add(ttl)
	}
	a.entries.Add(key, entry)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.entries.Remove(key)
	return nil
}

// DeletePattern removes all keys matching a glob-style pattern
func (a *MemoryAdapter) DeletePattern(ctx context.Context, pattern string) error {
	if pattern == "*" {
		a.entries.Purge()
		return nil
	}
	matcher, err := globToRegexp(pattern)
	if err != nil {
		return err
	}
	for _, key := range a.entries.Keys() {
		if matcher.MatchString(key) {
			a.entries.Remove(key)
		}
	}
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.Get(ctx, key)
	if err == providers.ErrCacheMiss {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// globToRegexp compiles a redis-style glob ("poi:area:*") into a regexp.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.Compile("^" + strings.Join(parts, ".*") + "$")
}
