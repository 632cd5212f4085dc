package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/HanTheDev/lead-signal-pipeline/internal/alerts"
	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/HanTheDev/lead-signal-pipeline/internal/recorder"
	"github.com/HanTheDev/lead-signal-pipeline/internal/scoring"
	"github.com/HanTheDev/lead-signal-pipeline/internal/signals"
)

// Message is one inbound (user_message, ai_response) pair as delivered by a
// channel transport.
type Message struct {
	TenantID          string         `json:"tenant_id"`
	Channel           models.Channel `json:"channel"`
	Contact           string         `json:"contact,omitempty"`
	MessageID         string         `json:"message_id,omitempty"`
	UserMessage       string         `json:"user_message"`
	AIResponse        string         `json:"ai_response"`
	RecommendedAction string         `json:"recommended_action,omitempty"`
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return models.ErrMissingTenant
	}
	if !m.Channel.IsValid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidChannel, m.Channel)
	}
	return nil
}

type Result struct {
	Signals         []models.BehaviorSignal `json:"signals"`
	LeadScore       *models.LeadScore       `json:"lead_score,omitempty"`
	EventsPersisted int                     `json:"events_persisted"`
	EventsReplayed  int                     `json:"events_replayed"`
	PersistedKinds  []models.SignalKind     `json:"persisted_kinds"`
	Alert           alerts.Outcome          `json:"alert"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, lead alerts.Lead) alerts.Outcome
}

type Processor struct {
	extractor  *signals.Extractor
	scorer     *scoring.Scorer
	recorder   *recorder.Recorder
	dispatcher Dispatcher
}

// New wires the pipeline. A nil dispatcher turns alerting off; every result
// then reports not_applicable.
func New(extractor *signals.Extractor, scorer *scoring.Scorer, rec *recorder.Recorder, dispatcher Dispatcher) *Processor {
	return &Processor{
		extractor:  extractor,
		scorer:     scorer,
		recorder:   rec,
		dispatcher: dispatcher,
	}
}

// ProcessMessage extracts, scores, records and, when warranted, alerts.
// Only invalid input is an error; persistence and delivery problems are
// reported inside the result.
func (p *Processor) ProcessMessage(ctx context.Context, msg Message) (*Result, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	sigs := p.extractor.Extract(msg.AIResponse, msg.UserMessage, msg.Channel)
	score := p.scorer.Score(msg.UserMessage, msg.AIResponse)

	recorded := p.recorder.Record(ctx, recorder.Input{
		TenantID:    msg.TenantID,
		MessageID:   msg.MessageID,
		Signals:     sigs,
		Score:       &score,
		AIResponse:  msg.AIResponse,
		UserMessage: msg.UserMessage,
		Channel:     msg.Channel,
	})

	result := &Result{
		Signals:         sigs,
		LeadScore:       &score,
		EventsPersisted: recorded.Persisted,
		EventsReplayed:  recorded.Duplicates,
		PersistedKinds:  recorded.Kinds,
		Alert:           alerts.Outcome{Status: alerts.StatusNotApplicable},
	}

	if p.dispatcher != nil {
		action := msg.RecommendedAction
		if action == "" {
			action = RecommendedAction(sigs)
		}

		result.Alert = p.dispatcher.Dispatch(ctx, alerts.Lead{
			TenantID:          msg.TenantID,
			Contact:           msg.Contact,
			Message:           msg.UserMessage,
			Score:             score,
			RecommendedAction: action,
		})
	}

	return result, nil
}

// RecommendedAction suggests the owner's next step from what the assistant
// already set in motion. Empty when nothing specific applies.
func RecommendedAction(sigs []models.BehaviorSignal) string {
	has := make(map[models.SignalKind]bool, len(sigs))
	for _, s := range sigs {
		has[s.Kind] = true
	}

	switch {
	case has[models.KindPhoneRequested]:
		return "Call the lead back"
	case has[models.KindAppointmentOffered]:
		return "Confirm the appointment slot"
	case has[models.KindPricingDiscussed]:
		return "Follow up with a written quote"
	}
	return ""
}
