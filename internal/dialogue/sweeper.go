package dialogue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/logger"
)

// DefaultSweepInterval is how often idle sessions are looked for.
const DefaultSweepInterval = time.Minute

// SweepCallback is called for every session removed by the sweeper.
type SweepCallback func(id string)

// StartSweeper runs a background goroutine that periodically removes idle
// sessions until ctx is canceled.
func StartSweeper(ctx context.Context, store *SessionStore, ttl, interval time.Duration, log *zap.Logger, onSweep SweepCallback) {
	log = logger.OrNop(log)
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		log.Info("session sweeper started", zap.Duration("interval", interval), zap.Duration("ttl", ttl))

		for {
			select {
			case <-ticker.C:
				sweepIdleSessions(store, ttl, log, onSweep)
			case <-ctx.Done():
				log.Info("session sweeper shutting down", zap.Error(ctx.Err()))
				return
			}
		}
	}()
}

func sweepIdleSessions(store *SessionStore, ttl time.Duration, log *zap.Logger, onSweep SweepCallback) {
	removed := store.SweepIdle(ttl)
	if len(removed) == 0 {
		return
	}

	for _, id := range removed {
		log.Debug("session sweeper removed idle session", zap.String(logger.FieldSessionID, id))
		if onSweep != nil {
			onSweep(id)
		}
	}
	log.Info("session sweeper cleanup completed", zap.Int("removed", len(removed)), zap.Int("remaining", store.Count()))
}
