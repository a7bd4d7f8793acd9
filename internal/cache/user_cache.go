package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/jon4hz/lendbook/internal/config"
)

// UserCachePrefix is the key prefix of cached identities.
const UserCachePrefix = "lendbook-user-"

// Identity is the cached part of a user record.
// Password hashes are never cached.
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// UserCache is a read-through cache of identities keyed by user id.
// Entries must be dropped whenever a user is deleted or its admin flag changes.
type UserCache struct {
	users *PrefixedCache[Identity]
}

// NewUserCache creates the identity cache for the configured backend.
func NewUserCache(cfg *config.CacheConfig) (*UserCache, error) {
	return &UserCache{
		users: NewPrefixedCache[Identity](
			newCacheInstanceByType(cfg),
			cfg.Type,
			UserCachePrefix,
			time.Duration(cfg.TTL)*time.Second,
		),
	}, nil
}

// Get returns the cached identity, if present.
func (c *UserCache) Get(ctx context.Context, id uint) (*Identity, bool) {
	identity, err := c.users.Get(ctx, id)
	if err != nil {
		return nil, false
	}
	if identity.ID != id {
		log.Warn("ignoring cached identity with mismatching id", "id", id, "cached", identity.ID)
		return nil, false
	}
	return &identity, true
}

// Set stores an identity.
func (c *UserCache) Set(ctx context.Context, identity Identity) {
	if err := c.users.Set(ctx, identity.ID, identity); err != nil {
		log.Warn("failed to cache user", "id", identity.ID, "error", err)
	}
}

// Invalidate drops the cached identity of a user.
func (c *UserCache) Invalidate(ctx context.Context, id uint) {
	if err := c.users.Delete(ctx, id); err != nil {
		log.Debug("failed to invalidate cached user", "id", id, "error", err)
	}
}

// Clear drops all cached identities.
func (c *UserCache) Clear(ctx context.Context) {
	if err := c.users.Clear(ctx); err != nil {
		log.Errorf("failed to clear cache: %v", err)
	}
}

// Stats represents the statistics of a named cache.
type Stats struct {
	*codec.Stats
	CacheName string           `json:"cacheName"`
	CacheType config.CacheType `json:"cacheType"`
}

// GetStats returns hit/miss statistics of the identity cache.
func (c *UserCache) GetStats() *Stats {
	return &Stats{
		Stats:     c.users.GetStats(),
		CacheName: "users",
		CacheType: c.users.GetType(),
	}
}
