package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/redis/go-redis/v9"
)

const DefaultSummaryTTL = 5 * time.Minute

// SummaryCache holds MonthlySummary rows in front of Postgres. The aggregator
// writes through after every refresh, so reads rarely hit the database.
type SummaryCache interface {
	GetSummary(ctx context.Context, tenantID string, month time.Time) (*models.MonthlySummary, error)
	SetSummary(ctx context.Context, summary *models.MonthlySummary) error
}

type summaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) SummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &summaryCache{client: client, ttl: ttl}
}

func (c *summaryCache) summaryKey(tenantID string, month time.Time) string {
	return fmt.Sprintf("summary:tenant:%s:%s", tenantID, models.MonthStart(month).Format("2006-01"))
}

// GetSummary returns (nil, nil) on a miss.
func (c *summaryCache) GetSummary(ctx context.Context, tenantID string, month time.Time) (*models.MonthlySummary, error) {
	data, err := c.client.Get(ctx, c.summaryKey(tenantID, month)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var summary models.MonthlySummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *summaryCache) SetSummary(ctx context.Context, summary *models.MonthlySummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.summaryKey(summary.TenantID, summary.Month), data, c.ttl).Err()
}
