package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/HanTheDev/lead-signal-pipeline/internal/memstore"
	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(store TenantStore) *mux.Router {
	router := mux.NewRouter()
	NewAdminHandler(store).RegisterRoutes(router)
	return router
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateTenant(t *testing.T) {
	store := memstore.New()
	router := newRouter(store)

	rec := do(t, router, http.MethodPost, "/tenants", `{"name":"Acme","owner_contact":"+1555","alerts_enabled":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var tenant models.Tenant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tenant))
	assert.NotEmpty(t, tenant.ID)
	assert.Len(t, tenant.APIKey, 64)
	assert.Equal(t, DefaultRateLimitPerHour, tenant.RateLimitPerHour)
	assert.True(t, tenant.AlertsEnabled)

	stored, err := store.GetTenantByAPIKey(context.Background(), tenant.APIKey)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.Name)
}

func TestCreateTenantValidation(t *testing.T) {
	router := newRouter(memstore.New())

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{`},
		{"missing name", `{"owner_contact":"+1555"}`},
		{"threshold too high", `{"name":"Acme","hot_lead_score_threshold":101}`},
		{"unknown timezone", `{"name":"Acme","timezone":"Nowhere/Special"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/tenants", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetAndListTenants(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.CreateTenant(context.Background(), &models.Tenant{ID: "t1", Name: "Acme"}))
	router := newRouter(store)

	rec := do(t, router, http.MethodGet, "/tenants/t1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Acme"`)

	rec = do(t, router, http.MethodGet, "/tenants/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/tenants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tenants []models.Tenant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tenants))
	assert.Len(t, tenants, 1)
}

func TestUpdateAlertConfig(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	require.NoError(t, store.CreateTenant(ctx, &models.Tenant{ID: "t1", Name: "Acme", OwnerContact: "+1555"}))
	router := newRouter(store)

	rec := do(t, router, http.MethodPut, "/tenants/t1/alert-config",
		`{"alerts_enabled":true,"business_hours_only":true,"timezone":"Europe/Berlin"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg models.TenantAlertConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.True(t, cfg.AlertsEnabled)
	assert.True(t, cfg.BusinessHoursOnly)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, "+1555", cfg.OwnerContact, "unset fields are kept")

	rec = do(t, router, http.MethodPut, "/tenants/t1/alert-config", `{"hot_lead_score_threshold":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPut, "/tenants/nope/alert-config", `{"alerts_enabled":false}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRotateAPIKey(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	require.NoError(t, store.CreateTenant(ctx, &models.Tenant{ID: "t1", Name: "Acme", APIKey: "old"}))
	router := newRouter(store)

	rec := do(t, router, http.MethodPost, "/tenants/t1/rotate-key", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rotated", body["status"])

	_, err := store.GetTenantByAPIKey(ctx, "old")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = store.GetTenantByAPIKey(ctx, body["api_key"])
	assert.NoError(t, err)

	rec = do(t, router, http.MethodPost, "/tenants/nope/rotate-key", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
