package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/admin"
	"github.com/HanTheDev/lead-signal-pipeline/internal/auth"
	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/HanTheDev/lead-signal-pipeline/internal/processor"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const Version = "1.0.0"

type TenantStore interface {
	admin.TenantStore
	GetTenantByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error)
}

type MessageProcessor interface {
	ProcessMessage(ctx context.Context, msg processor.Message) (*processor.Result, error)
}

type Reports interface {
	GetMonthlySummary(ctx context.Context, tenantID string, month time.Time) (*models.MonthlySummary, error)
	ListRecentEvents(ctx context.Context, tenantID string, limit int) ([]models.BehaviorEvent, error)
	GetAlertHistory(ctx context.Context, tenantID, ownerContact string) (*models.AlertHistory, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, tenantID string, limit int) (bool, error)
}

type Deps struct {
	Tenants   TenantStore
	Processor MessageProcessor
	Reports   Reports
	// Limiter may be nil, which disables ingest rate limiting.
	Limiter        RateLimiter
	JWTSecret      string
	AdminToken     string
	AllowedOrigins []string
}

type Server struct {
	deps Deps
	auth *auth.Middleware
	now  func() time.Time
}

func NewServer(deps Deps) *Server {
	return &Server{
		deps: deps,
		auth: auth.NewMiddleware(deps.JWTSecret, deps.AdminToken),
		now:  time.Now,
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	// Public routes
	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.HandleFunc("/auth/token", s.tokenHandler).Methods("POST")

	adminRouter := router.PathPrefix("/admin").Subrouter()
	adminRouter.Use(s.auth.RequireAdmin)
	admin.NewAdminHandler(s.deps.Tenants).RegisterRoutes(adminRouter)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(s.auth.Authenticate)
	apiRouter.HandleFunc("/messages", s.handleMessage).Methods("POST")
	apiRouter.HandleFunc("/summary", s.handleSummary).Methods("GET")
	apiRouter.HandleFunc("/events", s.handleEvents).Methods("GET")
	apiRouter.HandleFunc("/alerts/history", s.handleAlertHistory).Methods("GET")

	return router
}

// Handler wraps the router with CORS so preflight requests are answered
// before route matching.
func (s *Server) Handler() http.Handler {
	origins := s.deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", auth.AdminTokenHeader},
	})

	return c.Handler(s.Router())
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

func (s *Server) tokenHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIKey == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	tenant, err := s.deps.Tenants.GetTenantByAPIKey(r.Context(), req.APIKey)
	if err != nil {
		log.Printf("Tenant lookup failed: %v", err)
		http.Error(w, "Invalid API key", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(tenant.ID, s.deps.JWTSecret)
	if err != nil {
		log.Printf("Token generation failed: %v", err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	log.Printf("🔑 Token issued for tenant: %s", tenant.Name)

	writeJSON(w, http.StatusOK, map[string]string{
		"token": token,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
