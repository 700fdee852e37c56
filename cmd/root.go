package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studybuddy",
	Short: "Daily learning activities and spelling practice for kids",
	Long: `StudyBuddy generates a daily math and reading activity for each child,
adapts its difficulty to recent scores, and runs spoken spelling practice.`,
	SilenceUsage: true,
}

// Execute runs the CLI. Cancelling ctx stops long-running commands.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/studybuddy/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides STUDYBUDDY_DB and db.path)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(viewedCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(parentCmd)
	rootCmd.AddCommand(spellCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
