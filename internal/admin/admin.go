package admin

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/gorilla/mux"
)

const DefaultRateLimitPerHour = 1000

type TenantStore interface {
	ListTenants(ctx context.Context) ([]models.Tenant, error)
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenantByID(ctx context.Context, id string) (*models.Tenant, error)
	UpdateAlertConfig(ctx context.Context, id string, update models.AlertConfigUpdate) (*models.Tenant, error)
	RotateAPIKey(ctx context.Context, id, apiKey string) error
}

type AdminHandler struct {
	store TenantStore
}

func NewAdminHandler(store TenantStore) *AdminHandler {
	return &AdminHandler{store: store}
}

// RegisterRoutes expects a router already mounted under /admin.
func (h *AdminHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/tenants", h.ListTenants).Methods("GET")
	router.HandleFunc("/tenants", h.CreateTenant).Methods("POST")
	router.HandleFunc("/tenants/{id}", h.GetTenant).Methods("GET")
	router.HandleFunc("/tenants/{id}/alert-config", h.UpdateAlertConfig).Methods("PUT")
	router.HandleFunc("/tenants/{id}/rotate-key", h.RotateAPIKey).Methods("POST")
}

func (h *AdminHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID                    string `json:"id"`
		Name                  string `json:"name"`
		AlertsEnabled         bool   `json:"alerts_enabled"`
		OwnerContact          string `json:"owner_contact"`
		BusinessHoursOnly     bool   `json:"business_hours_only"`
		HotLeadScoreThreshold int    `json:"hot_lead_score_threshold"`
		Timezone              string `json:"timezone"`
		RateLimitPerHour      int    `json:"rate_limit_per_hour"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	if msg := validateAlertSettings(&req.HotLeadScoreThreshold, &req.Timezone); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	if req.RateLimitPerHour <= 0 {
		req.RateLimitPerHour = DefaultRateLimitPerHour
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		http.Error(w, "Failed to generate API key", http.StatusInternalServerError)
		return
	}

	tenant := &models.Tenant{
		ID:                    req.ID,
		Name:                  req.Name,
		APIKey:                apiKey,
		AlertsEnabled:         req.AlertsEnabled,
		OwnerContact:          req.OwnerContact,
		BusinessHoursOnly:     req.BusinessHoursOnly,
		HotLeadScoreThreshold: req.HotLeadScoreThreshold,
		Timezone:              req.Timezone,
		RateLimitPerHour:      req.RateLimitPerHour,
	}

	if err := h.store.CreateTenant(r.Context(), tenant); err != nil {
		log.Printf("Failed to create tenant: %v", err)
		http.Error(w, "Failed to create tenant", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tenant)
}

func (h *AdminHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.store.ListTenants(r.Context())
	if err != nil {
		http.Error(w, "Failed to list tenants", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tenants)
}

func (h *AdminHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	tenant, err := h.store.GetTenantByID(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tenant)
}

func (h *AdminHandler) UpdateAlertConfig(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var update models.AlertConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if msg := validateAlertSettings(update.HotLeadScoreThreshold, update.Timezone); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	tenant, err := h.store.UpdateAlertConfig(r.Context(), id, update)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	log.Printf("🔧 Alert config updated for tenant %s", tenant.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tenant.AlertConfig())
}

func (h *AdminHandler) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	newAPIKey, err := generateAPIKey()
	if err != nil {
		http.Error(w, "Failed to generate API key", http.StatusInternalServerError)
		return
	}

	if err := h.store.RotateAPIKey(r.Context(), id, newAPIKey); err != nil {
		writeLookupError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"api_key": newAPIKey,
		"status":  "rotated",
	})
}

// validateAlertSettings returns a client-facing message, or "" when the
// values are acceptable. Nil pointers are skipped.
func validateAlertSettings(threshold *int, timezone *string) string {
	if threshold != nil && (*threshold < 0 || *threshold > 100) {
		return "hot_lead_score_threshold must be between 0 and 100"
	}
	if timezone != nil && *timezone != "" {
		if _, err := time.LoadLocation(*timezone); err != nil {
			return "Unknown timezone"
		}
	}
	return ""
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrNotFound) {
		http.Error(w, "Tenant not found", http.StatusNotFound)
		return
	}
	log.Printf("Tenant store error: %v", err)
	http.Error(w, "Internal error", http.StatusInternalServerError)
}

func generateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
