package scoring

import (
	"fmt"
	"strings"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/HanTheDev/lead-signal-pipeline/internal/rules"
)

const (
	// HotLeadThreshold decides the stored is_hot flag. Tenant overrides only
	// affect alerting, never this value.
	HotLeadThreshold = 40

	MaxScore = 100
)

type Scorer struct {
	table *rules.Table
}

func NewScorer(table *rules.Table) *Scorer {
	if table == nil {
		table = rules.Default()
	}
	return &Scorer{table: table}
}

func (s *Scorer) Score(userMessage, aiResponse string) models.LeadScore {
	total := 0
	matched := make([]string, 0)

	for _, ind := range s.table.UserIndicators {
		if ind.Match.Any(userMessage) {
			total += ind.Weight
			matched = append(matched, ind.Name)
		}
	}
	for _, ind := range s.table.ResponseIndicators {
		if ind.Match.Any(aiResponse) {
			total += ind.Weight
			matched = append(matched, ind.Name)
		}
	}

	if total > MaxScore {
		total = MaxScore
	}

	return models.LeadScore{
		Score:          total,
		IsHot:          total >= HotLeadThreshold,
		SignalsMatched: matched,
		Reasoning:      Reasoning(total, matched),
	}
}

// Band names the score range used in reasoning text.
func Band(score int) string {
	switch {
	case score >= 80:
		return "very hot"
	case score >= 60:
		return "hot"
	case score >= HotLeadThreshold:
		return "warm"
	default:
		return "standard"
	}
}

// Reasoning is display-only text; nothing downstream parses it.
func Reasoning(score int, matched []string) string {
	if len(matched) == 0 {
		return fmt.Sprintf("%s lead (%d/100): no intent indicators", Band(score), score)
	}
	return fmt.Sprintf("%s lead (%d/100): %s", Band(score), score, strings.Join(matched, ", "))
}
