package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestAnalyze(t *testing.T) {
	out, err := run(t, "analyze",
		"--user", "I need this ASAP, my budget is $5000, ready to start now",
		"--response", "Could you share your phone number so I can call you today?",
		"--channel", "sms",
		"--rules", "",
	)
	require.NoError(t, err)

	var got analysis
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Signals, 2)
	assert.Equal(t, models.KindPhoneRequested, got.Signals[0].Kind)
	assert.GreaterOrEqual(t, got.LeadScore.Score, 65)
	assert.True(t, got.LeadScore.IsHot)
	assert.Equal(t, "Call the lead back", got.RecommendedAction)
}

func TestAnalyzeRejectsUnknownChannel(t *testing.T) {
	_, err := run(t, "analyze", "--user", "hi", "--response", "", "--channel", "fax", "--rules", "")
	assert.ErrorIs(t, err, models.ErrInvalidChannel)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "leadsignals version dev")
}
