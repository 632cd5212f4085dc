package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"github.com/HanTheDev/lead-signal-pipeline/internal/processor"
	"github.com/HanTheDev/lead-signal-pipeline/internal/rules"
	"github.com/HanTheDev/lead-signal-pipeline/internal/scoring"
	"github.com/HanTheDev/lead-signal-pipeline/internal/signals"
	"github.com/spf13/cobra"
)

var (
	analyzeUser     string
	analyzeResponse string
	analyzeChannel  string
	analyzeRules    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Extract signals and score a single message pair",
	Long: `Run the signal extractor and lead scorer over one user message and AI
response and print the result as JSON. Nothing is persisted and no alert is sent.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeUser, "user", "u", "", "Prospect message")
	analyzeCmd.Flags().StringVarP(&analyzeResponse, "response", "r", "", "AI assistant response")
	analyzeCmd.Flags().StringVarP(&analyzeChannel, "channel", "c", string(models.ChannelChat), "Channel: email, sms or chat")
	analyzeCmd.Flags().StringVar(&analyzeRules, "rules", "", "Rule table YAML (default: built-in table)")
}

type analysis struct {
	Signals           []models.BehaviorSignal `json:"signals"`
	LeadScore         models.LeadScore        `json:"lead_score"`
	Band              string                  `json:"band"`
	RecommendedAction string                  `json:"recommended_action,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	channel := models.Channel(analyzeChannel)
	if !channel.IsValid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidChannel, analyzeChannel)
	}

	table, err := rules.Load(analyzeRules)
	if err != nil {
		return err
	}

	sigs := signals.NewExtractor(table).Extract(analyzeResponse, analyzeUser, channel)
	score := scoring.NewScorer(table).Score(analyzeUser, analyzeResponse)

	out, err := json.MarshalIndent(analysis{
		Signals:           sigs,
		LeadScore:         score,
		Band:              scoring.Band(score.Score),
		RecommendedAction: processor.RecommendedAction(sigs),
	}, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
