package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/courierdesk/ops-dashboard/internal/api/metrics"
	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

// DefaultDisplayIDAttempts bounds the probes before falling back to a
// timestamp-derived id.
const DefaultDisplayIDAttempts = 10

// DisplayIDAllocator derives the next daily display id from the deliveries
// already stored. It keeps no counter and takes no lock: two concurrent
// allocations may pick the same id, and the store's unique index rejects the
// second insert.
type DisplayIDAllocator struct {
	store       ports.DisplayIDStore
	clock       ports.Clock
	maxAttempts int
	log         zerolog.Logger
}

func NewDisplayIDAllocator(store ports.DisplayIDStore, clock ports.Clock, maxAttempts int, log zerolog.Logger) *DisplayIDAllocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultDisplayIDAttempts
	}
	return &DisplayIDAllocator{store: store, clock: clock, maxAttempts: maxAttempts, log: log}
}

// Allocate returns a display id for a delivery created on today. The result is
// never empty. It is unique at probe time unless every probe collided, in
// which case the unprobed fallback is returned.
func (a *DisplayIDAllocator) Allocate(ctx context.Context, today time.Time) string {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	end := start.AddDate(0, 0, 1)

	count, err := a.store.CountDeliveriesCreatedBetween(ctx, start, end)
	if err != nil {
		a.log.Warn().Err(err).Msg("display id: count failed, starting sequence at 1")
		count = 0
	}

	seq := count + 1
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		candidate := domain.NewDisplayAllocation(today, seq)
		exists, err := a.store.DeliveryExistsWithDisplayID(ctx, candidate.Rendered)
		if err != nil {
			// An unanswered probe is treated as taken.
			a.log.Warn().Err(err).Str("display_id", candidate.Rendered).Msg("display id: probe failed")
		} else if !exists {
			return candidate.Rendered
		}
		metrics.DisplayIDCollisionsTotal.Inc()
		seq++
	}

	id := a.Fallback(today)
	metrics.DisplayIDFallbacksTotal.Inc()
	a.log.Warn().
		Int("attempts", a.maxAttempts).
		Str("display_id", id).
		Msg("display id: probes exhausted, using timestamp fallback")
	return id
}

// Fallback renders the date part of today followed by the last four digits of
// the current unix time in seconds. It is not checked against the store.
func (a *DisplayIDAllocator) Fallback(today time.Time) string {
	return fmt.Sprintf("%s%04d", today.Format(domain.DisplayIDDateLayout), a.clock.Now().Unix()%10000)
}
