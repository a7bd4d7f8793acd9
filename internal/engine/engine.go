package engine

import (
	"context"
	"fmt"

	"github.com/jon4hz/lendbook/internal/api/models"
	"github.com/jon4hz/lendbook/internal/cache"
	"github.com/jon4hz/lendbook/internal/config"
	"github.com/jon4hz/lendbook/internal/database"
)

// Engine implements the account, loan and catalog operations of lendbook.
// It holds no per-request state, the acting user is passed into every call.
type Engine struct {
	cfg   *config.Config
	db    database.DB
	users *cache.UserCache
}

// New creates a new Engine instance.
// If userCache is nil, a cache is created from the cache configuration.
func New(cfg *config.Config, db database.DB, userCache *cache.UserCache) (*Engine, error) {
	if cfg == nil || cfg.Auth == nil || cfg.Cache == nil {
		return nil, fmt.Errorf("config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	if userCache == nil {
		var err error
		userCache, err = cache.NewUserCache(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to create user cache: %w", err)
		}
	}

	return &Engine{
		cfg:   cfg,
		db:    db,
		users: userCache,
	}, nil
}

// Ping checks that the database is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	return e.db.Ping(ctx)
}

// Close closes the database connection.
func (e *Engine) Close() error {
	return e.db.Close()
}

// GetUserCache returns the identity cache.
func (e *Engine) GetUserCache() *cache.UserCache {
	return e.users
}

func requireUser(actor *models.User) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	return nil
}
