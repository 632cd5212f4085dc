package db

import (
	"context"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
)

// UpsertSummary writes the recount in one statement. The WHERE clause keeps a
// stale recount from another instance from lowering newer counters.
func (db *DB) UpsertSummary(ctx context.Context, summary *models.MonthlySummary) error {
	query := `
        INSERT INTO monthly_summaries (tenant_id, month, phone_requests_count, appointments_offered_count,
                                       hot_leads_detected_count, ai_responses_sent, event_counts, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (tenant_id, month) DO UPDATE
        SET phone_requests_count       = EXCLUDED.phone_requests_count,
            appointments_offered_count = EXCLUDED.appointments_offered_count,
            hot_leads_detected_count   = EXCLUDED.hot_leads_detected_count,
            ai_responses_sent          = EXCLUDED.ai_responses_sent,
            event_counts               = EXCLUDED.event_counts,
            updated_at                 = EXCLUDED.updated_at
        WHERE monthly_summaries.ai_responses_sent <= EXCLUDED.ai_responses_sent
    `

	counts := summary.EventCounts
	if counts == nil {
		counts = map[string]int{}
	}

	_, err := db.Pool.Exec(ctx, query,
		summary.TenantID,
		models.MonthStart(summary.Month),
		summary.PhoneRequestsCount,
		summary.AppointmentsOfferedCount,
		summary.HotLeadsDetectedCount,
		summary.AIResponsesSent,
		counts,
		summary.UpdatedAt,
	)

	return err
}

func (db *DB) GetMonthlySummary(ctx context.Context, tenantID string, month time.Time) (*models.MonthlySummary, error) {
	query := `
        SELECT tenant_id, month, phone_requests_count, appointments_offered_count,
               hot_leads_detected_count, ai_responses_sent, event_counts, updated_at
        FROM monthly_summaries
        WHERE tenant_id = $1 AND month = $2
    `

	var s models.MonthlySummary
	err := db.Pool.QueryRow(ctx, query, tenantID, models.MonthStart(month)).Scan(
		&s.TenantID,
		&s.Month,
		&s.PhoneRequestsCount,
		&s.AppointmentsOfferedCount,
		&s.HotLeadsDetectedCount,
		&s.AIResponsesSent,
		&s.EventCounts,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	s.Month = models.MonthStart(s.Month)
	return &s, nil
}
