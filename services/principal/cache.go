package principal

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/permissions"
	"github.com/farmersheaven/backend/repositories"
	"github.com/farmersheaven/backend/services"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheEntry represents a single cache entry with TTL
type cacheEntry struct {
	principal  permissions.Principal
	insertedAt time.Time
}

// Cache is an in-memory LRU cache with TTL of resolved principals, keyed by user id
type Cache struct {
	entries *lru.Cache[uuid.UUID, cacheEntry]
	ttl     time.Duration
	hits    atomic.Uint64
	misses  atomic.Uint64
	now     func() time.Time
}

// NewCache creates a new Cache with specified max size and TTL
func NewCache(maxSize int, ttl time.Duration) (*Cache, error) {
	entries, err := lru.New[uuid.UUID, cacheEntry](maxSize)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries, ttl: ttl, now: time.Now}, nil
}

// Get returns a cached principal. Expired entries are removed and reported as a miss.
func (c *Cache) Get(id uuid.UUID) (permissions.Principal, bool) {
	entry, ok := c.entries.Get(id)
	if !ok || c.expired(entry) {
		if ok {
			c.entries.Remove(id)
		}
		c.misses.Add(1)
		return permissions.Principal{}, false
	}
	c.hits.Add(1)
	return entry.principal, true
}

// Set stores a principal
func (c *Cache) Set(id uuid.UUID, p permissions.Principal) {
	c.entries.Add(id, cacheEntry{principal: p, insertedAt: c.now()})
}

// Invalidate removes the entry of a user, e.g. after its flags change
func (c *Cache) Invalidate(id uuid.UUID) {
	c.entries.Remove(id)
}

// Clear removes all entries from the cache
func (c *Cache) Clear() {
	c.entries.Purge()
}

// CleanupExpired removes all expired entries
func (c *Cache) CleanupExpired() int {
	removed := 0
	for _, id := range c.entries.Keys() {
		if entry, ok := c.entries.Peek(id); ok && c.expired(entry) {
			c.entries.Remove(id)
			removed++
		}
	}
	return removed
}

// StartCleanupWorker periodically removes expired entries until stopCh is closed
func (c *Cache) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanupExpired()
		case <-stopCh:
			return
		}
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	hits, misses := c.hits.Load(), c.misses.Load()
	stats := CacheStats{Size: c.entries.Len(), Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}

func (c *Cache) expired(entry cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(entry.insertedAt) > c.ttl
}

// FromUser builds the principal of a stored user
func FromUser(user *models.User) permissions.Principal {
	return permissions.Principal{
		ID:            user.ID.String(),
		Authenticated: true,
		SuperUser:     user.IsSuperUser,
	}
}

// Resolver turns a token subject into a principal, consulting the cache first
type Resolver struct {
	users repositories.UserRepository
	cache *Cache
}

// NewResolver creates a new Resolver. cache may be nil.
func NewResolver(users repositories.UserRepository, cache *Cache) *Resolver {
	return &Resolver{users: users, cache: cache}
}

// Resolve loads the principal of an active user
func (r *Resolver) Resolve(ctx context.Context, id uuid.UUID) (permissions.Principal, error) {
	if r.cache != nil {
		if p, ok := r.cache.Get(id); ok {
			return p, nil
		}
	}

	user, err := r.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return permissions.Principal{}, services.ErrInvalidToken
		}
		return permissions.Principal{}, services.WrapInternal("failed to resolve principal", err)
	}
	if !user.CanSignIn() {
		return permissions.Principal{}, services.ErrInvalidToken
	}

	p := FromUser(user)
	if r.cache != nil {
		r.cache.Set(id, p)
	}
	return p, nil
}

// Forget drops a cached principal
func (r *Resolver) Forget(id uuid.UUID) {
	if r != nil && r.cache != nil {
		r.cache.Invalidate(id)
	}
}
