package models

import (
	"encoding/json"
	"time"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelChat  Channel = "chat"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelChat:
		return true
	}
	return false
}

// SignalKind doubles as the persisted event_type.
type SignalKind string

const (
	KindPhoneRequested          SignalKind = "phone_requested"
	KindAppointmentOffered      SignalKind = "appointment_offered"
	KindHotLeadDetected         SignalKind = "hot_lead_detected"
	KindPricingDiscussed        SignalKind = "pricing_discussed"
	KindCtaIncluded             SignalKind = "cta_included"
	KindAdvantagesHighlighted   SignalKind = "advantages_highlighted"
	KindEmailRequested          SignalKind = "email_requested"
	KindFollowupOffered         SignalKind = "followup_offered"
	KindQualifyingQuestionAsked SignalKind = "qualifying_question_asked"
	KindUrgencyCreated          SignalKind = "urgency_created"
)

var ValidKinds = map[SignalKind]string{
	KindPhoneRequested:          "Assistant asked for a phone number or offered a call",
	KindAppointmentOffered:      "Assistant offered a meeting or appointment",
	KindHotLeadDetected:         "Prospect shows buying intent above the hot-lead threshold",
	KindPricingDiscussed:        "Pricing, cost or a quote was discussed",
	KindCtaIncluded:             "Response carried a call to action",
	KindAdvantagesHighlighted:   "Response highlighted competitive advantages",
	KindEmailRequested:          "Assistant asked for an email address",
	KindFollowupOffered:         "Assistant offered to follow up",
	KindQualifyingQuestionAsked: "Assistant asked qualifying questions",
	KindUrgencyCreated:          "Response created urgency",
}

func (k SignalKind) IsValid() bool {
	_, ok := ValidKinds[k]
	return ok
}

type BehaviorSignal struct {
	Kind       SignalKind     `json:"kind"`
	Confidence float64        `json:"confidence"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type LeadScore struct {
	Score          int      `json:"score"`
	IsHot          bool     `json:"is_hot"`
	SignalsMatched []string `json:"signals_matched"`
	Reasoning      string   `json:"reasoning"`
}

type BehaviorEvent struct {
	ID                 string          `json:"id"`
	TenantID           string          `json:"tenant_id"`
	EventType          SignalKind      `json:"event_type"`
	EventData          json.RawMessage `json:"event_data"`
	Channel            Channel         `json:"channel"`
	ConfidenceScore    float64         `json:"confidence_score"`
	AIResponseExcerpt  string          `json:"ai_response_excerpt"`
	UserMessageExcerpt string          `json:"user_message_excerpt"`
	CreatedAt          time.Time       `json:"created_at"`
}

type MonthlySummary struct {
	TenantID                 string         `json:"tenant_id"`
	Month                    time.Time      `json:"month"`
	PhoneRequestsCount       int            `json:"phone_requests_count"`
	AppointmentsOfferedCount int            `json:"appointments_offered_count"`
	HotLeadsDetectedCount    int            `json:"hot_leads_detected_count"`
	AIResponsesSent          int            `json:"ai_responses_sent"`
	EventCounts              map[string]int `json:"event_counts"`
	UpdatedAt                time.Time      `json:"updated_at"`
}

// MonthStart truncates t to the first instant of its UTC month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

type Tenant struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	APIKey                string    `json:"api_key"`
	AlertsEnabled         bool      `json:"alerts_enabled"`
	OwnerContact          string    `json:"owner_contact"`
	BusinessHoursOnly     bool      `json:"business_hours_only"`
	HotLeadScoreThreshold int       `json:"hot_lead_score_threshold"`
	Timezone              string    `json:"timezone"`
	RateLimitPerHour      int       `json:"rate_limit_per_hour"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (t *Tenant) AlertConfig() *TenantAlertConfig {
	return &TenantAlertConfig{
		TenantID:              t.ID,
		TenantName:            t.Name,
		AlertsEnabled:         t.AlertsEnabled,
		OwnerContact:          t.OwnerContact,
		BusinessHoursOnly:     t.BusinessHoursOnly,
		HotLeadScoreThreshold: t.HotLeadScoreThreshold,
		Timezone:              t.Timezone,
	}
}

type TenantAlertConfig struct {
	TenantID              string `json:"tenant_id"`
	TenantName            string `json:"tenant_name"`
	AlertsEnabled         bool   `json:"alerts_enabled"`
	OwnerContact          string `json:"owner_contact"`
	BusinessHoursOnly     bool   `json:"business_hours_only"`
	HotLeadScoreThreshold int    `json:"hot_lead_score_threshold"`
	Timezone              string `json:"timezone"`
}

// AlertConfigUpdate carries a partial update; nil fields are left as is.
type AlertConfigUpdate struct {
	AlertsEnabled         *bool   `json:"alerts_enabled"`
	OwnerContact          *string `json:"owner_contact"`
	BusinessHoursOnly     *bool   `json:"business_hours_only"`
	HotLeadScoreThreshold *int    `json:"hot_lead_score_threshold"`
	Timezone              *string `json:"timezone"`
}

// Apply copies the set fields onto t.
func (u AlertConfigUpdate) Apply(t *Tenant) {
	if u.AlertsEnabled != nil {
		t.AlertsEnabled = *u.AlertsEnabled
	}
	if u.OwnerContact != nil {
		t.OwnerContact = *u.OwnerContact
	}
	if u.BusinessHoursOnly != nil {
		t.BusinessHoursOnly = *u.BusinessHoursOnly
	}
	if u.HotLeadScoreThreshold != nil {
		t.HotLeadScoreThreshold = *u.HotLeadScoreThreshold
	}
	if u.Timezone != nil {
		t.Timezone = *u.Timezone
	}
}

type AlertRecord struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	OwnerContact string    `json:"owner_contact"`
	LeadContact  string    `json:"lead_contact"`
	Score        int       `json:"score"`
	Message      string    `json:"message"`
	DeliveryID   string    `json:"delivery_id"`
	SentAt       time.Time `json:"sent_at"`
}

type AlertStats struct {
	Total    int     `json:"total"`
	Last24h  int     `json:"last_24h"`
	Last7d   int     `json:"last_7d"`
	AvgScore float64 `json:"avg_score"`
	MaxScore int     `json:"max_score"`
}

type AlertHistory struct {
	Alerts []AlertRecord `json:"alerts"`
	Stats  AlertStats    `json:"stats"`
}
