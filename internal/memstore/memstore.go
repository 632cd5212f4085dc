// Package memstore keeps every pipeline table in process memory. It backs
// the analyze command, local runs without Postgres, and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/alerts"
	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/google/uuid"
)

type Store struct {
	mu        sync.RWMutex
	events    []models.BehaviorEvent
	eventIDs  map[string]struct{}
	summaries map[string]models.MonthlySummary
	tenants   map[string]*models.Tenant
	alerts    []models.AlertRecord

	// FailEvent, when set, is consulted before each event write so tests can
	// inject persistence failures.
	FailEvent func(*models.BehaviorEvent) error

	now func() time.Time
}

func New() *Store {
	return &Store{
		eventIDs:  make(map[string]struct{}),
		summaries: make(map[string]models.MonthlySummary),
		tenants:   make(map[string]*models.Tenant),
		now:       time.Now,
	}
}

func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func summaryKey(tenantID string, month time.Time) string {
	return tenantID + "|" + models.MonthStart(month).Format("2006-01")
}

// SaveEvent is idempotent on event id. It reports whether the event was new.
func (s *Store) SaveEvent(_ context.Context, event *models.BehaviorEvent) (bool, error) {
	if s.FailEvent != nil {
		if err := s.FailEvent(event); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.eventIDs[event.ID]; dup {
		return false, nil
	}
	s.eventIDs[event.ID] = struct{}{}
	s.events = append(s.events, *event)
	return true, nil
}

func (s *Store) CountEventsByType(_ context.Context, tenantID string, from, to time.Time) (map[models.SignalKind]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.SignalKind]int)
	for _, e := range s.events {
		if e.TenantID != tenantID || e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		counts[e.EventType]++
	}
	return counts, nil
}

// UpsertSummary never lets a smaller recount replace a larger one.
func (s *Store) UpsertSummary(_ context.Context, summary *models.MonthlySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := summaryKey(summary.TenantID, summary.Month)
	if existing, ok := s.summaries[key]; ok && existing.AIResponsesSent > summary.AIResponsesSent {
		return nil
	}

	stored := *summary
	stored.EventCounts = make(map[string]int, len(summary.EventCounts))
	for k, v := range summary.EventCounts {
		stored.EventCounts[k] = v
	}
	s.summaries[key] = stored
	return nil
}

func (s *Store) GetMonthlySummary(_ context.Context, tenantID string, month time.Time) (*models.MonthlySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[summaryKey(tenantID, month)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &summary, nil
}

// ListRecentEvents returns the tenant's newest events first.
func (s *Store) ListRecentEvents(_ context.Context, tenantID string, limit int) ([]models.BehaviorEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.BehaviorEvent, 0)
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].TenantID == tenantID {
			out = append(out, s.events[i])
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SaveAlert(_ context.Context, record *models.AlertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = append(s.alerts, *record)
	return nil
}

func (s *Store) GetAlertHistory(_ context.Context, tenantID, ownerContact string, limit int) (*models.AlertHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matching := make([]models.AlertRecord, 0)
	for _, r := range s.alerts {
		if r.TenantID == tenantID && r.OwnerContact == ownerContact {
			matching = append(matching, r)
		}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].SentAt.After(matching[j].SentAt)
	})

	history := &models.AlertHistory{Stats: alerts.Stats(matching, s.now())}
	if limit > 0 && len(matching) > limit {
		matching = matching[:limit]
	}
	history.Alerts = matching
	return history, nil
}

func (s *Store) CreateTenant(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	now := s.now().UTC()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	stored := *tenant
	s.tenants[tenant.ID] = &stored
	return nil
}

func (s *Store) GetTenantByID(_ context.Context, id string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *t
	return &out, nil
}

func (s *Store) GetTenantByAPIKey(_ context.Context, apiKey string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tenants {
		if t.APIKey == apiKey {
			out := *t
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *Store) ListTenants(_ context.Context) ([]models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt) ||
			(out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].ID < out[j].ID)
	})
	return out, nil
}

func (s *Store) UpdateAlertConfig(_ context.Context, id string, update models.AlertConfigUpdate) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	update.Apply(t)
	t.UpdatedAt = s.now().UTC()

	out := *t
	return &out, nil
}

func (s *Store) RotateAPIKey(_ context.Context, id, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return models.ErrNotFound
	}
	t.APIKey = apiKey
	t.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) GetAlertConfig(ctx context.Context, tenantID string) (*models.TenantAlertConfig, error) {
	t, err := s.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return t.AlertConfig(), nil
}
