package scoring

import (
	"fmt"
	"testing"

	"github.com/HanTheDev/lead-signal-pipeline/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreHotUserMessage(t *testing.T) {
	s := NewScorer(nil)

	score := s.Score("I need this ASAP, my budget is $5000, ready to start now", "")

	assert.Equal(t, 65, score.Score)
	assert.True(t, score.IsHot)
	assert.Equal(t, []string{"urgency", "budget", "readiness"}, score.SignalsMatched)
	assert.Equal(t, "hot lead (65/100): urgency, budget, readiness", score.Reasoning)
}

func TestScoreEmpty(t *testing.T) {
	score := NewScorer(nil).Score("", "")

	assert.Equal(t, 0, score.Score)
	assert.False(t, score.IsHot)
	require.NotNil(t, score.SignalsMatched)
	assert.Empty(t, score.SignalsMatched)
	assert.Equal(t, "standard lead (0/100): no intent indicators", score.Reasoning)
}

func TestScoreCountsIndicatorOnce(t *testing.T) {
	s := NewScorer(nil)

	once := s.Score("urgent", "")
	repeated := s.Score("urgent! urgent!! this is an emergency, asap, right away", "")

	assert.Equal(t, 25, once.Score)
	assert.Equal(t, once.Score, repeated.Score)
	assert.Equal(t, []string{"urgency"}, repeated.SignalsMatched)
}

func TestScoreResponseIndicators(t *testing.T) {
	s := NewScorer(nil)

	score := s.Score("comparing a few other quotes", "We can get a crew out today. We specialize in exactly this.")

	assert.Equal(t, []string{"comparison", "immediate_action", "strong_match"}, score.SignalsMatched)
	assert.Equal(t, 35, score.Score)
	assert.False(t, score.IsHot)
}

func TestScoreUserIndicatorsOnlyReadUserMessage(t *testing.T) {
	s := NewScorer(nil)

	score := s.Score("", "what's your budget? we can start asap")

	assert.NotContains(t, score.SignalsMatched, "urgency")
	assert.NotContains(t, score.SignalsMatched, "budget")
}

func TestScoreIsCapped(t *testing.T) {
	table, err := rules.Parse([]byte(`
user_indicators:
  - name: a
    weight: 70
    patterns: ['alpha']
  - name: b
    weight: 70
    patterns: ['beta']
`))
	require.NoError(t, err)

	score := NewScorer(table).Score("alpha beta", "")
	assert.Equal(t, MaxScore, score.Score)
	assert.Equal(t, []string{"a", "b"}, score.SignalsMatched)
	assert.Equal(t, "very hot lead (100/100): a, b", score.Reasoning)
}

func TestBand(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "standard"},
		{39, "standard"},
		{40, "warm"},
		{59, "warm"},
		{60, "hot"},
		{79, "hot"},
		{80, "very hot"},
		{100, "very hot"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.score), func(t *testing.T) {
			assert.Equal(t, tt.want, Band(tt.score))
		})
	}
}

var corpus = []struct{ user, response string }{
	{"", ""},
	{"hello", "hi there"},
	{"I need this ASAP, my budget is $5000, ready to start now", ""},
	{"urgent emergency, can we do this week? I can pay $200. ready to book. comparing competitors. 3 bedrooms specifically",
		"We can be there today. We specialize in this and it's a perfect fit."},
	{"when can you come out? within 3 days please", "Let me check right away."},
	{"just browsing", "Let us know if you have questions."},
	{"What's the price for 2000 sq ft?", "It depends, happy to quote."},
}

func TestScoreProperties(t *testing.T) {
	s := NewScorer(nil)

	for _, c := range corpus {
		first := s.Score(c.user, c.response)

		assert.GreaterOrEqual(t, first.Score, 0)
		assert.LessOrEqual(t, first.Score, MaxScore)
		assert.Equal(t, first.Score >= HotLeadThreshold, first.IsHot, "%q", c.user)

		for i := 0; i < 3; i++ {
			assert.Equal(t, first, NewScorer(nil).Score(c.user, c.response))
		}
	}
}
