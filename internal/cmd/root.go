package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leadsignals",
	Short: "Lead signal pipeline",
	Long: `leadsignals extracts behavioral signals and lead scores from AI
conversations, records them per tenant and alerts owners about hot leads.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
