// Package reports serves the dashboard reads. A tenant with no activity
// gets zero-valued results, never an error.
package reports

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
)

const (
	DefaultEventLimit = 50
	MaxEventLimit     = 200
	AlertHistoryLimit = 50
)

type Store interface {
	GetMonthlySummary(ctx context.Context, tenantID string, month time.Time) (*models.MonthlySummary, error)
	ListRecentEvents(ctx context.Context, tenantID string, limit int) ([]models.BehaviorEvent, error)
	GetAlertHistory(ctx context.Context, tenantID, ownerContact string, limit int) (*models.AlertHistory, error)
}

// SummaryCache returns (nil, nil) on a miss. Reads never fill it; only the
// aggregator writes, so a slow read cannot replace a newer recount.
type SummaryCache interface {
	GetSummary(ctx context.Context, tenantID string, month time.Time) (*models.MonthlySummary, error)
}

type Service struct {
	store Store
	cache SummaryCache
}

func NewService(store Store, cache SummaryCache) *Service {
	return &Service{store: store, cache: cache}
}

func (s *Service) GetMonthlySummary(ctx context.Context, tenantID string, month time.Time) (*models.MonthlySummary, error) {
	month = models.MonthStart(month)

	if s.cache != nil {
		cached, err := s.cache.GetSummary(ctx, tenantID, month)
		if err != nil {
			log.Printf("⚠️ Summary cache read failed for tenant %s: %v", tenantID, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	summary, err := s.store.GetMonthlySummary(ctx, tenantID, month)
	if errors.Is(err, models.ErrNotFound) {
		return &models.MonthlySummary{
			TenantID:    tenantID,
			Month:       month,
			EventCounts: map[string]int{},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	if summary.EventCounts == nil {
		summary.EventCounts = map[string]int{}
	}

	return summary, nil
}

func (s *Service) ListRecentEvents(ctx context.Context, tenantID string, limit int) ([]models.BehaviorEvent, error) {
	events, err := s.store.ListRecentEvents(ctx, tenantID, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.BehaviorEvent{}
	}
	return events, nil
}

// GetAlertHistory lists alerts the tenant sent to ownerContact. Another
// tenant's alerts to the same contact are never included.
func (s *Service) GetAlertHistory(ctx context.Context, tenantID, ownerContact string) (*models.AlertHistory, error) {
	if ownerContact == "" {
		return &models.AlertHistory{Alerts: []models.AlertRecord{}}, nil
	}

	history, err := s.store.GetAlertHistory(ctx, tenantID, ownerContact, AlertHistoryLimit)
	if err != nil {
		return nil, err
	}
	if history.Alerts == nil {
		history.Alerts = []models.AlertRecord{}
	}
	return history, nil
}

// ClampLimit maps a requested page size onto [1, MaxEventLimit], with
// non-positive values meaning the default.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultEventLimit
	case limit > MaxEventLimit:
		return MaxEventLimit
	}
	return limit
}
