package db

import (
	"context"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
)

func (db *DB) SaveAlert(ctx context.Context, record *models.AlertRecord) error {
	query := `
        INSERT INTO alert_history (id, tenant_id, owner_contact, lead_contact, score, message, delivery_id, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `

	_, err := db.Pool.Exec(ctx, query,
		record.ID,
		record.TenantID,
		record.OwnerContact,
		record.LeadContact,
		record.Score,
		record.Message,
		record.DeliveryID,
		record.SentAt,
	)

	return err
}

// GetAlertHistory returns the tenant's newest records for ownerContact and
// stats over all of them.
func (db *DB) GetAlertHistory(ctx context.Context, tenantID, ownerContact string, limit int) (*models.AlertHistory, error) {
	query := `
        SELECT id, tenant_id, owner_contact, lead_contact, score, message, delivery_id, sent_at
        FROM alert_history
        WHERE owner_contact = $1 AND tenant_id = $2
        ORDER BY sent_at DESC
        LIMIT $3
    `

	rows, err := db.Pool.Query(ctx, query, ownerContact, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := &models.AlertHistory{Alerts: make([]models.AlertRecord, 0)}
	for rows.Next() {
		var r models.AlertRecord
		err := rows.Scan(
			&r.ID,
			&r.TenantID,
			&r.OwnerContact,
			&r.LeadContact,
			&r.Score,
			&r.Message,
			&r.DeliveryID,
			&r.SentAt,
		)
		if err != nil {
			return nil, err
		}
		history.Alerts = append(history.Alerts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	statsQuery := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE sent_at >= NOW() - INTERVAL '24 hours'),
               COUNT(*) FILTER (WHERE sent_at >= NOW() - INTERVAL '7 days'),
               COALESCE(ROUND(AVG(score)::numeric, 2), 0)::float8,
               COALESCE(MAX(score), 0)
        FROM alert_history
        WHERE owner_contact = $1 AND tenant_id = $2
    `

	err = db.Pool.QueryRow(ctx, statsQuery, ownerContact, tenantID).Scan(
		&history.Stats.Total,
		&history.Stats.Last24h,
		&history.Stats.Last7d,
		&history.Stats.AvgScore,
		&history.Stats.MaxScore,
	)
	if err != nil {
		return nil, err
	}

	return history, nil
}
