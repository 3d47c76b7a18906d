package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tyhsiao/bookline/internal/cache"
	"github.com/tyhsiao/bookline/internal/repository/base"
)

// SettingsRepository reads shop-facing settings (announcement text, shop
// name and the like) maintained out-of-band by the admin screens. Values
// go through the config cache namespace.
type SettingsRepository struct {
	*base.Repository
	cache *cache.Cache[string]
	ttl   time.Duration
}

func NewSettingsRepository(handles *base.HandleProvider, c *cache.Cache[string], ttl time.Duration) *SettingsRepository {
	return &SettingsRepository{
		Repository: base.NewRepository(handles),
		cache:      c,
		ttl:        ttl,
	}
}

// Value returns the setting for key, or def when the key is absent.
func (r *SettingsRepository) Value(ctx context.Context, key, def string) (string, error) {
	if v, ok := r.cache.Get(key); ok {
		return v, nil
	}

	row, err := r.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key)
	if err != nil {
		return def, err
	}

	var value string
	if err := row.Scan(&value); err != nil {
		if base.IsNotFound(err) {
			r.cache.Set(key, def, r.ttl)
			return def, nil
		}
		return def, fmt.Errorf("get setting %s: %w", key, err)
	}

	r.cache.Set(key, value, r.ttl)
	return value, nil
}
