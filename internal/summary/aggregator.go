package summary

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/keylock"
	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
)

type Store interface {
	// CountEventsByType groups the tenant's events created in [from, to)
	// by event_type.
	CountEventsByType(ctx context.Context, tenantID string, from, to time.Time) (map[models.SignalKind]int, error)
	UpsertSummary(ctx context.Context, summary *models.MonthlySummary) error
}

type Cache interface {
	SetSummary(ctx context.Context, summary *models.MonthlySummary) error
}

// Aggregator rebuilds MonthlySummary rows from the event table. Counters are
// always recounted, never incremented, so replays and out-of-order writes
// converge on the same row.
type Aggregator struct {
	store Store
	cache Cache
	locks *keylock.Map
	now   func() time.Time
}

func NewAggregator(store Store, cache Cache) *Aggregator {
	return &Aggregator{
		store: store,
		cache: cache,
		locks: keylock.New(),
		now:   time.Now,
	}
}

func (a *Aggregator) Refresh(ctx context.Context, tenantID string, month time.Time) (*models.MonthlySummary, error) {
	month = models.MonthStart(month)

	unlock := a.locks.Lock(lockKey(tenantID, month))
	defer unlock()

	counts, err := a.store.CountEventsByType(ctx, tenantID, month, month.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	summary := Build(tenantID, month, counts)
	summary.UpdatedAt = a.now().UTC()

	if err := a.store.UpsertSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to upsert summary: %w", err)
	}

	if a.cache != nil {
		if err := a.cache.SetSummary(ctx, summary); err != nil {
			log.Printf("⚠️ Failed to cache summary for tenant %s: %v", tenantID, err)
		}
	}

	return summary, nil
}

// Build maps per-type counts onto the summary counters.
func Build(tenantID string, month time.Time, counts map[models.SignalKind]int) *models.MonthlySummary {
	summary := &models.MonthlySummary{
		TenantID:    tenantID,
		Month:       models.MonthStart(month),
		EventCounts: make(map[string]int, len(counts)),
	}

	for kind, n := range counts {
		if n == 0 {
			continue
		}
		summary.EventCounts[string(kind)] = n
		summary.AIResponsesSent += n

		switch kind {
		case models.KindPhoneRequested:
			summary.PhoneRequestsCount = n
		case models.KindAppointmentOffered:
			summary.AppointmentsOfferedCount = n
		case models.KindHotLeadDetected:
			summary.HotLeadsDetectedCount = n
		}
	}

	return summary
}

func lockKey(tenantID string, month time.Time) string {
	return tenantID + "|" + month.Format("2006-01")
}
