package store

import (
	"context"
	"log/slog"
	"time"

	"group-order-service/internal/observability"
)

// Sweeper periodically evicts expired sessions. The interval is coarse, so
// read paths must still check expiry themselves.
type Sweeper struct {
	store    Store
	interval time.Duration
}

// NewSweeper builds a sweeper over the given store.
func NewSweeper(store Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{store: store, interval: interval}
}

// Run blocks, sweeping once per interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := s.store.SweepExpired(ctx, time.Now())
			if err != nil {
				slog.Error("expiry sweep failed", "error", err)
				continue
			}
			if count > 0 {
				slog.Info("expiry sweep evicted sessions", "count", count)
			}
			observability.AddSessionsSwept(count)
		}
	}
}
