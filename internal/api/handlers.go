package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/auth"
	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/HanTheDev/lead-signal-pipeline/internal/processor"
)

const maxMessageBody = 1 << 20

// tenantFor resolves the token's tenant, writing the error response itself
// when it returns nil.
func (s *Server) tenantFor(w http.ResponseWriter, r *http.Request) *models.Tenant {
	claims, ok := auth.GetTenantFromContext(r.Context())
	if !ok {
		log.Println("❌ Unauthorized: No claims in context")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil
	}

	tenant, err := s.deps.Tenants.GetTenantByID(r.Context(), claims.TenantID)
	if errors.Is(err, models.ErrNotFound) {
		http.Error(w, "Tenant not found", http.StatusUnauthorized)
		return nil
	}
	if err != nil {
		log.Printf("❌ Tenant lookup failed: %v", err)
		http.Error(w, "Tenant lookup failed", http.StatusInternalServerError)
		return nil
	}

	return tenant
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	tenant := s.tenantFor(w, r)
	if tenant == nil {
		return
	}

	if s.deps.Limiter != nil {
		allowed, err := s.deps.Limiter.Allow(r.Context(), tenant.ID, tenant.RateLimitPerHour)
		if err != nil {
			log.Printf("❌ Rate limit check failed: %v", err)
			http.Error(w, "Rate limit check failed", http.StatusInternalServerError)
			return
		}
		if !allowed {
			log.Printf("🚫 Rate limit exceeded for tenant: %s", tenant.ID)
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
	}

	var msg processor.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBody)).Decode(&msg); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	// The token decides the tenant, never the body.
	msg.TenantID = tenant.ID

	result, err := s.deps.Processor.ProcessMessage(r.Context(), msg)
	if errors.Is(err, models.ErrInvalidChannel) || errors.Is(err, models.ErrMissingTenant) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("❌ Processing failed for tenant %s: %v", tenant.ID, err)
		http.Error(w, "Processing failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	tenant := s.tenantFor(w, r)
	if tenant == nil {
		return
	}

	month := s.now()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			http.Error(w, "month must be YYYY-MM", http.StatusBadRequest)
			return
		}
		month = parsed
	}

	summary, err := s.deps.Reports.GetMonthlySummary(r.Context(), tenant.ID, month)
	if err != nil {
		log.Printf("❌ Summary read failed for tenant %s: %v", tenant.ID, err)
		http.Error(w, "Failed to load summary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	tenant := s.tenantFor(w, r)
	if tenant == nil {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := s.deps.Reports.ListRecentEvents(r.Context(), tenant.ID, limit)
	if err != nil {
		log.Printf("❌ Event listing failed for tenant %s: %v", tenant.ID, err)
		http.Error(w, "Failed to list events", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	tenant := s.tenantFor(w, r)
	if tenant == nil {
		return
	}

	history, err := s.deps.Reports.GetAlertHistory(r.Context(), tenant.ID, tenant.OwnerContact)
	if err != nil {
		log.Printf("❌ Alert history read failed for tenant %s: %v", tenant.ID, err)
		http.Error(w, "Failed to load alert history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, history)
}
