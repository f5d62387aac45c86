package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "thedge",
	Short: "TelHawk Edge CLI",
	Long: `thedge is the command-line interface for the TelHawk Edge telemetry stack.

Send one-off telemetry readings through the ingest pipeline, mint device
bearer tokens, and check the health of a running edge instance.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("edge-url", "http://localhost:8000", "base URL of the edge ingest service")
	rootCmd.PersistentFlags().String("token", "", "device bearer token for authenticated edges")
	rootCmd.PersistentFlags().String("output", "text", "output format: text, json")
}
