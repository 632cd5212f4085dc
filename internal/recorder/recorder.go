package recorder

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/HanTheDev/lead-signal-pipeline/internal/textutil"
	"github.com/google/uuid"
)

const (
	MaxAIResponseExcerpt  = 2000
	MaxUserMessageExcerpt = 1000
)

// eventNamespace scopes deterministic event ids. Changing it would make
// replays of old messages insert duplicates.
var eventNamespace = uuid.MustParse("5b0f6a4e-8a43-4c1e-9d0e-3f1f2d6c7a10")

type EventStore interface {
	// SaveEvent reports false when an event with the same id already exists.
	SaveEvent(ctx context.Context, event *models.BehaviorEvent) (bool, error)
}

// Refresher recomputes the monthly rollup after events land.
type Refresher interface {
	Refresh(ctx context.Context, tenantID string, month time.Time) (*models.MonthlySummary, error)
}

type Input struct {
	TenantID string
	// MessageID, when set, makes event ids deterministic so a replayed
	// message maps onto the rows it already wrote.
	MessageID   string
	Signals     []models.BehaviorSignal
	Score       *models.LeadScore
	AIResponse  string
	UserMessage string
	Channel     models.Channel
}

type Failure struct {
	Kind models.SignalKind
	Err  error
}

type RecordResult struct {
	// Persisted counts new rows only. Replayed events land in Duplicates.
	Persisted  int
	Duplicates int
	// Kinds lists every kind now stored for the message, new or replayed.
	Kinds    []models.SignalKind
	Failures []Failure

	Summary    *models.MonthlySummary
	SummaryErr error
}

type Recorder struct {
	events    EventStore
	summaries Refresher
	now       func() time.Time
}

func New(events EventStore, summaries Refresher) *Recorder {
	return &Recorder{
		events:    events,
		summaries: summaries,
		now:       time.Now,
	}
}

// WithClock overrides the time source used for created_at.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Record writes one event per signal plus a hot_lead_detected event when the
// score is hot. Each write stands alone; failures are logged and reported
// in the result without stopping the rest of the batch.
func (r *Recorder) Record(ctx context.Context, in Input) RecordResult {
	result := RecordResult{Kinds: make([]models.SignalKind, 0, len(in.Signals)+1)}
	createdAt := r.now().UTC()

	aiExcerpt := textutil.Truncate(in.AIResponse, MaxAIResponseExcerpt)
	userExcerpt := textutil.Truncate(in.UserMessage, MaxUserMessageExcerpt)

	hot := in.Score != nil && in.Score.IsHot

	for _, sig := range in.Signals {
		// The scored hot event below supersedes any rule-emitted one.
		if hot && sig.Kind == models.KindHotLeadDetected {
			continue
		}

		data, err := json.Marshal(attributesOrEmpty(sig.Attributes))
		if err != nil {
			r.fail(&result, in.TenantID, sig.Kind, err)
			continue
		}

		event := r.newEvent(in, sig.Kind, data, sig.Confidence, aiExcerpt, userExcerpt, createdAt)
		r.save(ctx, &result, event)
	}

	if hot {
		data, err := json.Marshal(in.Score)
		if err != nil {
			r.fail(&result, in.TenantID, models.KindHotLeadDetected, err)
		} else {
			confidence := float64(in.Score.Score) / 100
			event := r.newEvent(in, models.KindHotLeadDetected, data, confidence, aiExcerpt, userExcerpt, createdAt)
			r.save(ctx, &result, event)
		}
	}

	if result.Persisted+result.Duplicates > 0 && r.summaries != nil {
		summary, err := r.summaries.Refresh(ctx, in.TenantID, models.MonthStart(createdAt))
		if err != nil {
			log.Printf("⚠️ Summary refresh failed for tenant %s: %v", in.TenantID, err)
			result.SummaryErr = err
		} else {
			result.Summary = summary
		}
	}

	return result
}

func (r *Recorder) newEvent(in Input, kind models.SignalKind, data []byte, confidence float64, aiExcerpt, userExcerpt string, createdAt time.Time) *models.BehaviorEvent {
	return &models.BehaviorEvent{
		ID:                 EventID(in.TenantID, in.MessageID, kind),
		TenantID:           in.TenantID,
		EventType:          kind,
		EventData:          data,
		Channel:            in.Channel,
		ConfidenceScore:    confidence,
		AIResponseExcerpt:  aiExcerpt,
		UserMessageExcerpt: userExcerpt,
		CreatedAt:          createdAt,
	}
}

func (r *Recorder) save(ctx context.Context, result *RecordResult, event *models.BehaviorEvent) {
	inserted, err := r.events.SaveEvent(ctx, event)
	if err != nil {
		r.fail(result, event.TenantID, event.EventType, err)
		return
	}
	if inserted {
		result.Persisted++
	} else {
		result.Duplicates++
	}
	result.Kinds = append(result.Kinds, event.EventType)
}

func (r *Recorder) fail(result *RecordResult, tenantID string, kind models.SignalKind, err error) {
	log.Printf("❌ Failed to record %s event for tenant %s: %v", kind, tenantID, err)
	result.Failures = append(result.Failures, Failure{Kind: kind, Err: err})
}

// EventID derives a stable id from (tenant, message, kind) when the message
// is identified, and a random one otherwise.
func EventID(tenantID, messageID string, kind models.SignalKind) string {
	if messageID == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(eventNamespace, []byte(tenantID+"|"+messageID+"|"+string(kind))).String()
}

func attributesOrEmpty(attrs map[string]any) map[string]any {
	if attrs == nil {
		return map[string]any{}
	}
	return attrs
}
