package worker

import (
	"context"
	"time"

	"swiftaza/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	sweepInterval   = 30 * time.Second
	redriveInterval = 2 * time.Minute
	redriveBatch    = 20
)

// Sweeper drops expired entries from a store and reports how many went.
type Sweeper interface {
	Cleanup(ctx context.Context) int
}

// StartTicker runs fn every interval until ctx is cancelled.
func StartTicker(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		log.Info().Str("cron", name).Dur("interval", interval).Msg("cron: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Str("cron", name).Msg("cron: shutting down")
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

// StartCodeSweeper periodically removes expired verification codes.
func StartCodeSweeper(ctx context.Context, s Sweeper) {
	StartTicker(ctx, "verification_sweep", sweepInterval, func(ctx context.Context) {
		if n := s.Cleanup(ctx); n > 0 {
			log.Debug().Int("removed", n).Msg("cron: expired verification codes swept")
		}
	})
}

// StartEmailRedrive replays dead-lettered email jobs once the SMTP breaker
// lets calls through again.
func StartEmailRedrive(ctx context.Context, rdb *redis.Client, cb *infra.CircuitBreaker) {
	StartTicker(ctx, "email_redrive", redriveInterval, func(ctx context.Context) {
		redriveEmail(ctx, rdb, cb)
	})
}

func redriveEmail(ctx context.Context, rdb *redis.Client, cb *infra.CircuitBreaker) int {
	if cb != nil && cb.State() == infra.CBOpen {
		log.Debug().Msg("cron: smtp breaker open, skipping redrive")
		return 0
	}
	n, err := Redrive(ctx, rdb, QueueEmail, redriveBatch)
	if err != nil {
		log.Error().Err(err).Msg("cron: email redrive failed")
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("cron: dead-lettered emails requeued")
	}
	return n
}
