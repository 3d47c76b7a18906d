// Package base holds the shared plumbing for the tabular-store
// repositories: the cached pool handle and thin query helpers.
package base

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tyhsiao/bookline/internal/cache"
)

const handleKey = "pool"

// HandleProvider hands out the shared pgx pool through the store-handle
// cache namespace. On expiry the existing handle is revalidated with a
// ping and only redialed when the ping fails.
type HandleProvider struct {
	dsn   string
	ttl   time.Duration
	cache *cache.Cache[*pgxpool.Pool]

	mu   sync.Mutex
	pool *pgxpool.Pool
}

func NewHandleProvider(dsn string, ttl time.Duration, c *cache.Cache[*pgxpool.Pool]) *HandleProvider {
	return &HandleProvider{dsn: dsn, ttl: ttl, cache: c}
}

// Pool returns a live pool handle, dialing or revalidating as needed.
func (p *HandleProvider) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	if pool, ok := p.cache.Get(handleKey); ok {
		return pool, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if pool, ok := p.cache.Get(handleKey); ok {
		return pool, nil
	}

	if p.pool != nil {
		if err := p.pool.Ping(ctx); err == nil {
			p.cache.Set(handleKey, p.pool, p.ttl)
			return p.pool, nil
		}
		p.pool.Close()
		p.pool = nil
	}

	pool, err := pgxpool.New(ctx, p.dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}

	p.pool = pool
	p.cache.Set(handleKey, pool, p.ttl)
	return pool, nil
}

func (p *HandleProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	p.cache.Invalidate(handleKey)
}

// Repository is the base every concrete repository embeds.
type Repository struct {
	handles *HandleProvider
}

func NewRepository(handles *HandleProvider) *Repository {
	return &Repository{handles: handles}
}

func (r *Repository) QueryRow(ctx context.Context, query string, args ...any) (pgx.Row, error) {
	pool, err := r.handles.Pool(ctx)
	if err != nil {
		return nil, err
	}
	return pool.QueryRow(ctx, query, args...), nil
}

func (r *Repository) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	pool, err := r.handles.Pool(ctx)
	if err != nil {
		return nil, err
	}
	return pool.Query(ctx, query, args...)
}

func (r *Repository) ExecAffected(ctx context.Context, query string, args ...any) (int64, error) {
	pool, err := r.handles.Pool(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IsNotFound reports whether err means "row not found".
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
