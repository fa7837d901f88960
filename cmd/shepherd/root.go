package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "shepherd",
	Short: "Shepherd - intent-aware chat proxy with per-caller quotas",
	Long: `Shepherd is an HTTP proxy for a chat application backed by an LLM
completion API.

Each message is classified into one of four intents (prayer, informational,
conversational, practical) to select the system prompt sent upstream, and
every request is checked against per-caller burst, daily-request, and
daily-cost quotas before the model is called. Replies are post-processed to
extract scripture references.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
}
