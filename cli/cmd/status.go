package cmd

import (
	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-edge/cli/internal/client"
	"github.com/telhawk-systems/telhawk-edge/cli/pkg/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check edge health",
	Long:  "Query the health and readiness endpoints of a running edge instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		edgeURL, _ := cmd.Flags().GetString("edge-url")
		c := client.New(edgeURL, "")

		health, healthErr := c.Health()
		ready, readyErr := c.Ready()

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			result := map[string]interface{}{"edge_url": edgeURL}
			if healthErr != nil {
				result["health_error"] = healthErr.Error()
			} else {
				result["health"] = health
			}
			if readyErr != nil {
				result["ready_error"] = readyErr.Error()
			} else {
				result["ready"] = ready
			}
			return output.JSON(result)
		}

		table := output.NewTable([]string{"Check", "Status"})
		if healthErr != nil {
			table.AddRow([]string{"health", "unreachable: " + healthErr.Error()})
		} else {
			table.AddRow([]string{"health", health.Status})
		}
		if readyErr != nil {
			table.AddRow([]string{"ready", "unreachable: " + readyErr.Error()})
		} else {
			table.AddRow([]string{"ready", ready.Status})
		}
		table.Render()

		if healthErr != nil || readyErr != nil {
			output.Warn("Edge at %s is not fully available", edgeURL)
		} else {
			output.Success("Edge at %s is healthy", edgeURL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
