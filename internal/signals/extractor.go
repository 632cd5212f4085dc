package signals

import (
	"math"
	"strings"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/HanTheDev/lead-signal-pipeline/internal/rules"
)

const (
	baseConfidence    = 0.6
	confidencePerRule = 0.1
)

// Extractor interprets a rule table against a message pair. It holds no
// mutable state and is safe for concurrent use.
type Extractor struct {
	table *rules.Table
}

func NewExtractor(table *rules.Table) *Extractor {
	if table == nil {
		table = rules.Default()
	}
	return &Extractor{table: table}
}

// Extract returns one signal per kind whose group matched, in table order.
// Unmatched or empty text yields an empty, non-nil slice.
func (e *Extractor) Extract(aiResponse, userMessage string, channel models.Channel) []models.BehaviorSignal {
	signals := make([]models.BehaviorSignal, 0)

	aiResponse = strings.TrimSpace(aiResponse)
	userMessage = strings.TrimSpace(userMessage)
	if aiResponse == "" && userMessage == "" {
		return signals
	}

	for i := range e.table.Signals {
		rule := &e.table.Signals[i]
		texts := sourceTexts(rule.Source, aiResponse, userMessage)

		matched := rule.Match.Count(texts...)
		if matched == 0 {
			continue
		}

		signals = append(signals, models.BehaviorSignal{
			Kind:       rule.Kind,
			Confidence: Confidence(matched),
			Attributes: extractAttributes(rule, matched, texts),
		})
	}

	return signals
}

// Confidence maps a matched rule count onto [0.6, 1.0].
func Confidence(matched int) float64 {
	if matched <= 0 {
		return 0
	}
	c := baseConfidence + confidencePerRule*float64(matched)
	if c > 1.0 {
		return 1.0
	}
	return math.Round(c*100) / 100
}

func sourceTexts(source rules.Source, aiResponse, userMessage string) []string {
	switch source {
	case rules.SourceUser:
		return []string{userMessage}
	case rules.SourceBoth:
		return []string{aiResponse, userMessage}
	default:
		return []string{aiResponse}
	}
}

func extractAttributes(rule *rules.SignalRule, matched int, texts []string) map[string]any {
	if len(rule.Attributes) == 0 {
		return nil
	}

	attrs := make(map[string]any, len(rule.Attributes))
	for i := range rule.Attributes {
		attr := &rule.Attributes[i]

		switch attr.Mode {
		case rules.ModeFlag:
			if attr.Match.Any(texts...) {
				attrs[attr.Name] = attr.ValueTrue
			} else {
				attrs[attr.Name] = attr.ValueFalse
			}
		case rules.ModeFirst:
			attrs[attr.Name] = firstBucket(attr, texts)
		case rules.ModeAll:
			attrs[attr.Name] = allBuckets(attr, texts)
		case rules.ModeCapture:
			if found, ok := attr.Match.Find(texts...); ok {
				attrs[attr.Name] = strings.TrimSpace(found)
			} else {
				attrs[attr.Name] = nil
			}
		case rules.ModeCount:
			attrs[attr.Name] = matched
		}
	}

	return attrs
}

func firstBucket(attr *rules.AttributeRule, texts []string) string {
	for _, b := range attr.Buckets {
		if b.Match.Any(texts...) {
			return b.Name
		}
	}
	return attr.Fallback
}

func allBuckets(attr *rules.AttributeRule, texts []string) []string {
	names := make([]string, 0, len(attr.Buckets))
	for _, b := range attr.Buckets {
		if b.Match.Any(texts...) {
			names = append(names, b.Name)
		}
	}
	return names
}
