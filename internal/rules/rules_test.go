package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableCompiles(t *testing.T) {
	table := Default()
	require.NotNil(t, table)

	kinds := make(map[models.SignalKind]bool)
	for _, rule := range table.Signals {
		assert.NotEmpty(t, rule.Match, rule.Kind)
		kinds[rule.Kind] = true
	}

	for _, k := range []models.SignalKind{
		models.KindPhoneRequested,
		models.KindAppointmentOffered,
		models.KindPricingDiscussed,
		models.KindCtaIncluded,
		models.KindAdvantagesHighlighted,
		models.KindEmailRequested,
		models.KindFollowupOffered,
		models.KindQualifyingQuestionAsked,
		models.KindUrgencyCreated,
	} {
		assert.True(t, kinds[k], "default table is missing %s", k)
	}

	names := []string{}
	for _, ind := range table.UserIndicators {
		names = append(names, ind.Name)
	}
	for _, ind := range table.ResponseIndicators {
		names = append(names, ind.Name)
	}
	assert.Equal(t, []string{
		"urgency", "budget", "timeline", "readiness", "comparison", "specificity",
		"immediate_action", "strong_match",
	}, names)
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestParseRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "unknown kind",
			yaml: "signals:\n  - kind: telepathy\n    patterns: ['x']\n",
			want: ErrUnknownKind,
		},
		{
			name: "duplicate kind",
			yaml: "signals:\n  - kind: phone_requested\n    patterns: ['a']\n  - kind: phone_requested\n    patterns: ['b']\n",
			want: ErrDuplicateKind,
		},
		{
			name: "no patterns",
			yaml: "signals:\n  - kind: phone_requested\n",
			want: ErrEmptyPatterns,
		},
		{
			name: "bad regex",
			yaml: "signals:\n  - kind: phone_requested\n    patterns: ['(unclosed']\n",
			want: ErrBadPattern,
		},
		{
			name: "bad source",
			yaml: "signals:\n  - kind: phone_requested\n    source: fax\n    patterns: ['a']\n",
			want: ErrUnknownSource,
		},
		{
			name: "bad mode",
			yaml: "signals:\n  - kind: phone_requested\n    patterns: ['a']\n    attributes:\n      - name: x\n        mode: guess\n",
			want: ErrUnknownMode,
		},
		{
			name: "zero weight",
			yaml: "user_indicators:\n  - name: urgency\n    weight: 0\n    patterns: ['asap']\n",
			want: ErrBadWeight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseDefaultsSourceToResponse(t *testing.T) {
	table, err := Parse([]byte("signals:\n  - kind: email_requested\n    patterns: ['email']\n"))
	require.NoError(t, err)
	assert.Equal(t, SourceResponse, table.Signals[0].Source)
}

func TestLoad(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)
	assert.Same(t, Default(), table)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user_indicators:\n  - name: urgency\n    weight: 50\n    patterns: ['now']\n"), 0644))

	table, err = Load(path)
	require.NoError(t, err)
	require.Len(t, table.UserIndicators, 1)
	assert.Equal(t, 50, table.UserIndicators[0].Weight)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMatcher(t *testing.T) {
	m, err := compilePatterns("test", []string{`\bcall\b`, `\bphone\b`, `\$\d+`})
	require.NoError(t, err)

	assert.Equal(t, 2, m.Count("Give me a CALL on my Phone"))
	assert.Equal(t, 0, m.Count(""))
	assert.True(t, m.Any("", "phone"))
	assert.False(t, m.Any("nothing here"))

	found, ok := m.Find("it costs $250 total")
	assert.True(t, ok)
	assert.Equal(t, "$250", found)

	_, ok = m.Find("free")
	assert.False(t, ok)
}
