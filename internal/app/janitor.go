package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tyhsiao/bookline/internal/cache"
)

// Janitor periodically sweeps expired cache entries so index rebuilds pay
// their cost on a background tick instead of on a request.
type Janitor struct {
	caches   *cache.Service
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewJanitor(caches *cache.Service, interval time.Duration, logger *zap.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{
		caches:   caches,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (j *Janitor) Start(ctx context.Context) {
	j.logger.Info("Starting cache janitor", zap.Duration("interval", j.interval))
	go j.run(ctx)
}

// Stop terminates the sweep loop.
func (j *Janitor) Stop() {
	j.logger.Info("Stopping cache janitor")
	close(j.stopChan)
}

func (j *Janitor) run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if dropped := j.caches.Sweep(); dropped > 0 {
				j.logger.Debug("Swept expired cache entries", zap.Int("dropped", dropped))
			}
		case <-j.stopChan:
			j.logger.Info("Cache janitor stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Cache janitor cancelled")
			return
		}
	}
}
