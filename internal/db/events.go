package db

import (
	"context"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
)

// SaveEvent inserts an event and reports whether a row was written. Replays
// of a deterministic id are ignored and report false.
func (db *DB) SaveEvent(ctx context.Context, event *models.BehaviorEvent) (bool, error) {
	query := `
        INSERT INTO behavior_events (id, tenant_id, event_type, event_data, channel, confidence_score,
                                     ai_response_excerpt, user_message_excerpt, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO NOTHING
    `

	data := []byte(event.EventData)
	if len(data) == 0 {
		data = []byte("{}")
	}

	tag, err := db.Pool.Exec(ctx, query,
		event.ID,
		event.TenantID,
		string(event.EventType),
		data,
		string(event.Channel),
		event.ConfidenceScore,
		event.AIResponseExcerpt,
		event.UserMessageExcerpt,
		event.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (db *DB) CountEventsByType(ctx context.Context, tenantID string, from, to time.Time) (map[models.SignalKind]int, error) {
	query := `
        SELECT event_type, COUNT(*)
        FROM behavior_events
        WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
        GROUP BY event_type
    `

	rows, err := db.Pool.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.SignalKind]int)
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		counts[models.SignalKind(kind)] = count
	}

	return counts, rows.Err()
}

func (db *DB) ListRecentEvents(ctx context.Context, tenantID string, limit int) ([]models.BehaviorEvent, error) {
	query := `
        SELECT id, tenant_id, event_type, event_data, channel, confidence_score,
               ai_response_excerpt, user_message_excerpt, created_at
        FROM behavior_events
        WHERE tenant_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `

	rows, err := db.Pool.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.BehaviorEvent, 0)
	for rows.Next() {
		var (
			e       models.BehaviorEvent
			kind    string
			channel string
			data    []byte
		)
		err := rows.Scan(
			&e.ID,
			&e.TenantID,
			&kind,
			&data,
			&channel,
			&e.ConfidenceScore,
			&e.AIResponseExcerpt,
			&e.UserMessageExcerpt,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		e.EventType = models.SignalKind(kind)
		e.Channel = models.Channel(channel)
		e.EventData = data
		events = append(events, e)
	}

	return events, rows.Err()
}
