package service

import (
	"context"
	"time"

	"github.com/makerloop/commerce-backend/internal/clock"
	"github.com/makerloop/commerce-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Sweeper periodically expires pre-checkout carts that have gone stale,
// returning their batch and stock claims to the pool.
type Sweeper struct {
	store        repository.Store
	reservations ReservationService
	clock        clock.Clock
	ttl          time.Duration
	interval     time.Duration
	log          zerolog.Logger
}

func NewSweeper(store repository.Store, reservations ReservationService, clk clock.Clock, ttl, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:        store,
		reservations: reservations,
		clock:        clk,
		ttl:          ttl,
		interval:     interval,
		log:          log,
	}
}

// Run blocks until ctx is done, sweeping on every tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ExpireStale(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("cart sweep failed")
				continue
			}
			if n > 0 {
				s.log.Info().Int("items", n).Msg("expired stale cart items")
			}
		}
	}
}

// ExpireStale expires every item of every stale cart and reports how many
// items were expired.
func (s *Sweeper) ExpireStale(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.ttl)
	carts, err := s.store.Carts().FindStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range carts {
		for j := range carts[i].Items {
			if err := s.reservations.Expire(ctx, carts[i].Items[j].ID); err != nil {
				return expired, err
			}
			expired++
		}
	}
	return expired, nil
}
