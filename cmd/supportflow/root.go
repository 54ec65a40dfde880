package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "supportflow",
	Short: "SupportFlow is a deterministic IT-support triage bot",
	Long: `SupportFlow classifies helpdesk messages, walks users through a
guided VPN troubleshooting flow, and escalates unresolved issues with a
structured handoff summary.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML config file")
}
