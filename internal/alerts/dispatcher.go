package alerts

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/HanTheDev/lead-signal-pipeline/internal/scoring"
	"github.com/HanTheDev/lead-signal-pipeline/internal/throttle"
	"github.com/google/uuid"
)

const UnknownContact = "unknown"

type Status string

const (
	StatusSent          Status = "sent"
	StatusSuppressed    Status = "suppressed"
	StatusNotApplicable Status = "not_applicable"
	StatusFailed        Status = "failed"
)

const (
	ReasonAlertsDisabled  = "alerts disabled"
	ReasonOutsideHours    = "outside business hours"
	ReasonThrottled       = "throttled"
	ReasonBelowThreshold  = "below threshold"
	ReasonNoConfig        = "no alert config"
	ReasonNoOwnerContact  = "no owner contact"
	ReasonTransportFailed = "transport failed"
	ReasonThrottleFailed  = "throttle store unavailable"
	ReasonConfigFailed    = "config lookup failed"
)

// ConfigProvider is read-only; the dispatcher never writes tenant config.
type ConfigProvider interface {
	GetAlertConfig(ctx context.Context, tenantID string) (*models.TenantAlertConfig, error)
}

type Transport interface {
	SendAlert(ctx context.Context, contact, body string) (deliveryID string, err error)
}

type AlertLog interface {
	SaveAlert(ctx context.Context, record *models.AlertRecord) error
}

type Lead struct {
	TenantID          string
	Contact           string
	Message           string
	Score             models.LeadScore
	RecommendedAction string
}

type Outcome struct {
	Status         Status     `json:"status"`
	Reason         string     `json:"reason,omitempty"`
	NextEligibleAt *time.Time `json:"next_eligible_at,omitempty"`
	DeliveryID     string     `json:"delivery_id,omitempty"`
	Error          string     `json:"error,omitempty"`
	Err            error      `json:"-"`
}

func (o Outcome) Sent() bool {
	return o.Status == StatusSent
}

func notApplicable(reason string) Outcome {
	return Outcome{Status: StatusNotApplicable, Reason: reason}
}

func suppressed(reason string) Outcome {
	return Outcome{Status: StatusSuppressed, Reason: reason}
}

func failed(reason string, err error) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason, Err: err, Error: err.Error()}
}

type Dispatcher struct {
	configs    ConfigProvider
	transport  Transport
	throttle   throttle.Store
	history    AlertLog
	window     time.Duration
	defaultLoc *time.Location
	now        func() time.Time
}

type Option func(*Dispatcher)

func WithHistory(history AlertLog) Option {
	return func(d *Dispatcher) { d.history = history }
}

func WithWindow(window time.Duration) Option {
	return func(d *Dispatcher) {
		if window > 0 {
			d.window = window
		}
	}
}

// WithDefaultLocation sets the zone used when a tenant has none configured.
func WithDefaultLocation(loc *time.Location) Option {
	return func(d *Dispatcher) {
		if loc != nil {
			d.defaultLoc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(configs ConfigProvider, transport Transport, store throttle.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		configs:    configs,
		transport:  transport,
		throttle:   store,
		window:     throttle.DefaultWindow,
		defaultLoc: time.UTC,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch decides whether lead warrants an owner alert and sends it.
// Checks run in a fixed order: alerts disabled, business hours, throttle.
// The throttle only moves to throttled once the transport accepted the alert.
func (d *Dispatcher) Dispatch(ctx context.Context, lead Lead) Outcome {
	cfg, err := d.configs.GetAlertConfig(ctx, lead.TenantID)
	if errors.Is(err, models.ErrNotFound) || (err == nil && cfg == nil) {
		return notApplicable(ReasonNoConfig)
	}
	if err != nil {
		log.Printf("❌ Alert config lookup failed for tenant %s: %v", lead.TenantID, err)
		return failed(ReasonConfigFailed, err)
	}

	if lead.Score.Score < Threshold(cfg) {
		return notApplicable(ReasonBelowThreshold)
	}

	if !cfg.AlertsEnabled {
		return suppressed(ReasonAlertsDisabled)
	}
	if cfg.OwnerContact == "" {
		return notApplicable(ReasonNoOwnerContact)
	}

	now := d.now()

	if cfg.BusinessHoursOnly && !InBusinessHours(now, d.location(cfg)) {
		return suppressed(ReasonOutsideHours)
	}

	if d.transport == nil {
		return failed(ReasonTransportFailed, ErrNoTransport)
	}

	contact := contactOrUnknown(lead.Contact)
	body := Compose(cfg.TenantName, lead)

	var (
		deliveryID string
		sendErr    error
	)
	decision, err := d.throttle.Attempt(ctx, throttle.Key(lead.TenantID, contact), now, d.window, func(ctx context.Context) error {
		deliveryID, sendErr = d.transport.SendAlert(ctx, cfg.OwnerContact, body)
		return sendErr
	})

	switch {
	case sendErr != nil:
		log.Printf("❌ Alert delivery failed for tenant %s, contact %s: %v", lead.TenantID, contact, sendErr)
		return failed(ReasonTransportFailed, sendErr)
	case err != nil:
		log.Printf("❌ Throttle check failed for tenant %s: %v", lead.TenantID, err)
		return failed(ReasonThrottleFailed, err)
	case !decision.Allowed:
		next := decision.NextEligibleAt
		out := suppressed(ReasonThrottled)
		out.NextEligibleAt = &next
		return out
	}

	log.Printf("🔔 Alert %s sent to %s for tenant %s (score %d)", deliveryID, cfg.OwnerContact, lead.TenantID, lead.Score.Score)

	d.remember(ctx, &models.AlertRecord{
		ID:           uuid.NewString(),
		TenantID:     lead.TenantID,
		OwnerContact: cfg.OwnerContact,
		LeadContact:  contact,
		Score:        lead.Score.Score,
		Message:      body,
		DeliveryID:   deliveryID,
		SentAt:       now.UTC(),
	})

	out := Outcome{Status: StatusSent, DeliveryID: deliveryID}
	if !decision.NextEligibleAt.IsZero() {
		next := decision.NextEligibleAt
		out.NextEligibleAt = &next
	}
	return out
}

func (d *Dispatcher) remember(ctx context.Context, record *models.AlertRecord) {
	if d.history == nil {
		return
	}
	if err := d.history.SaveAlert(ctx, record); err != nil {
		log.Printf("⚠️ Failed to store alert history for tenant %s: %v", record.TenantID, err)
	}
}

func (d *Dispatcher) location(cfg *models.TenantAlertConfig) *time.Location {
	if cfg.Timezone == "" {
		return d.defaultLoc
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("⚠️ Unknown timezone %q for tenant %s, using %s", cfg.Timezone, cfg.TenantID, d.defaultLoc)
		return d.defaultLoc
	}
	return loc
}

// Threshold is the alerting cut-off for a tenant. A positive override
// replaces the default; the stored is_hot flag never changes.
func Threshold(cfg *models.TenantAlertConfig) int {
	if cfg != nil && cfg.HotLeadScoreThreshold > 0 {
		return cfg.HotLeadScoreThreshold
	}
	return scoring.HotLeadThreshold
}
