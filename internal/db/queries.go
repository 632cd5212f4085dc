package db

import (
	"context"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tenantColumns = `id, name, api_key, alerts_enabled, owner_contact, business_hours_only,
               hot_lead_score_threshold, timezone, rate_limit_per_hour, created_at, updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var tenant models.Tenant
	err := row.Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.APIKey,
		&tenant.AlertsEnabled,
		&tenant.OwnerContact,
		&tenant.BusinessHoursOnly,
		&tenant.HotLeadScoreThreshold,
		&tenant.Timezone,
		&tenant.RateLimitPerHour,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &tenant, nil
}

func (db *DB) GetTenantByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error) {
	query := `
        SELECT ` + tenantColumns + `
        FROM tenants
        WHERE api_key = $1
    `
	return scanTenant(db.Pool.QueryRow(ctx, query, apiKey))
}

func (db *DB) GetTenantByID(ctx context.Context, id string) (*models.Tenant, error) {
	query := `
        SELECT ` + tenantColumns + `
        FROM tenants
        WHERE id = $1
    `
	return scanTenant(db.Pool.QueryRow(ctx, query, id))
}

func (db *DB) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	query := `
        SELECT ` + tenantColumns + `
        FROM tenants
        ORDER BY created_at, id
    `

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := make([]models.Tenant, 0)
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *tenant)
	}

	return tenants, rows.Err()
}

func (db *DB) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}

	query := `
        INSERT INTO tenants (id, name, api_key, alerts_enabled, owner_contact, business_hours_only,
                             hot_lead_score_threshold, timezone, rate_limit_per_hour)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING created_at, updated_at
    `

	return db.Pool.QueryRow(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.APIKey,
		tenant.AlertsEnabled,
		tenant.OwnerContact,
		tenant.BusinessHoursOnly,
		tenant.HotLeadScoreThreshold,
		tenant.Timezone,
		tenant.RateLimitPerHour,
	).Scan(&tenant.CreatedAt, &tenant.UpdatedAt)
}

func (db *DB) UpdateAlertConfig(ctx context.Context, id string, update models.AlertConfigUpdate) (*models.Tenant, error) {
	query := `
        UPDATE tenants
        SET alerts_enabled           = COALESCE($2, alerts_enabled),
            owner_contact            = COALESCE($3, owner_contact),
            business_hours_only      = COALESCE($4, business_hours_only),
            hot_lead_score_threshold = COALESCE($5, hot_lead_score_threshold),
            timezone                 = COALESCE($6, timezone),
            updated_at               = NOW()
        WHERE id = $1
        RETURNING ` + tenantColumns + `
    `

	return scanTenant(db.Pool.QueryRow(ctx, query,
		id,
		update.AlertsEnabled,
		update.OwnerContact,
		update.BusinessHoursOnly,
		update.HotLeadScoreThreshold,
		update.Timezone,
	))
}

func (db *DB) RotateAPIKey(ctx context.Context, id, apiKey string) error {
	query := `
        UPDATE tenants
        SET api_key = $2, updated_at = NOW()
        WHERE id = $1
    `

	tag, err := db.Pool.Exec(ctx, query, id, apiKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetAlertConfig serves the dispatcher's read-only view of a tenant.
func (db *DB) GetAlertConfig(ctx context.Context, tenantID string) (*models.TenantAlertConfig, error) {
	tenant, err := db.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return tenant.AlertConfig(), nil
}
