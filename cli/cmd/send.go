package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-edge/cli/internal/client"
	"github.com/telhawk-systems/telhawk-edge/cli/pkg/output"
	"github.com/telhawk-systems/telhawk-edge/common/model"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send telemetry to the edge",
	Long:  "Send one or more telemetry readings through the edge ingest pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		deviceID, _ := cmd.Flags().GetString("device")
		seq, _ := cmd.Flags().GetInt64("seq")
		count, _ := cmd.Flags().GetInt("count")

		if deviceID == "" {
			return fmt.Errorf("device id is required")
		}
		if count < 1 {
			return fmt.Errorf("count must be >= 1")
		}

		edgeURL, _ := cmd.Flags().GetString("edge-url")
		token, _ := cmd.Flags().GetString("token")
		outputFormat, _ := cmd.Flags().GetString("output")

		faker := gofakeit.New(0)
		c := client.New(edgeURL, token)

		var results []*client.IngestResult
		for i := 0; i < count; i++ {
			msg := &model.TelemetryMessage{
				DeviceID:    deviceID,
				SequenceID:  seq + int64(i),
				Timestamp:   time.Now().UTC(),
				Temperature: faker.Float64Range(18.0, 28.0),
				Humidity:    faker.Float64Range(30.0, 70.0),
				Pressure:    faker.Float64Range(980.0, 1020.0),
			}

			// Explicit reading flags override the generated values.
			if cmd.Flags().Changed("temperature") {
				msg.Temperature, _ = cmd.Flags().GetFloat64("temperature")
			}
			if cmd.Flags().Changed("humidity") {
				msg.Humidity, _ = cmd.Flags().GetFloat64("humidity")
			}
			if cmd.Flags().Changed("pressure") {
				msg.Pressure, _ = cmd.Flags().GetFloat64("pressure")
			}

			result, err := c.Ingest(msg)
			if err != nil {
				return fmt.Errorf("delivery failed: %w", err)
			}
			results = append(results, result)

			if outputFormat != "json" {
				switch result.StatusCode {
				case http.StatusOK:
					output.Success("seq %d accepted (correlation: %s)", msg.SequenceID, result.CorrelationID)
				case http.StatusConflict:
					output.Warn("seq %d duplicate: %s", msg.SequenceID, result.Message)
				case http.StatusServiceUnavailable:
					output.Warn("seq %d overloaded: %s", msg.SequenceID, result.Message)
				default:
					output.Error("seq %d rejected (%d): %s", msg.SequenceID, result.StatusCode, result.Message)
				}
			}
		}

		if outputFormat == "json" {
			return output.JSON(results)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringP("device", "d", "", "Device identifier")
	sendCmd.Flags().Int64P("seq", "s", 0, "Starting sequence number")
	sendCmd.Flags().IntP("count", "c", 1, "Number of readings to send (sequence increments)")
	sendCmd.Flags().Float64("temperature", 0, "Fixed temperature reading")
	sendCmd.Flags().Float64("humidity", 0, "Fixed humidity reading")
	sendCmd.Flags().Float64("pressure", 0, "Fixed pressure reading")
	if err := sendCmd.MarkFlagRequired("device"); err != nil {
		panic(fmt.Sprintf("failed to mark device as required: %v", err))
	}
}
