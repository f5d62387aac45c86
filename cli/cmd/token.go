package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-edge/cli/pkg/output"
	"github.com/telhawk-systems/telhawk-edge/edge/pkg/tokens"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Device token management",
	Long:  "Mint bearer tokens for devices talking to an auth-enabled edge",
}

var tokenGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a device bearer token",
	Long:  "Generate a signed bearer token for the given device identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		deviceID, _ := cmd.Flags().GetString("device")
		secret, _ := cmd.Flags().GetString("secret")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		if deviceID == "" {
			return fmt.Errorf("device id is required")
		}
		if secret == "" {
			return fmt.Errorf("signing secret is required")
		}

		manager := tokens.NewManager(secret, ttl)
		token, err := manager.Generate(deviceID)
		if err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return output.JSON(map[string]string{
				"device_id": deviceID,
				"token":     token,
			})
		}

		output.Success("Token generated for device '%s'", deviceID)
		output.Info("%s", token)
		output.Info("\nUse this token with:")
		output.Info("  thedge send --device %s --token %s", deviceID, token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenGenerateCmd)

	tokenGenerateCmd.Flags().StringP("device", "d", "", "Device identifier to embed in the token")
	tokenGenerateCmd.Flags().String("secret", "", "Shared signing secret (must match the edge's auth.secret)")
	tokenGenerateCmd.Flags().Duration("ttl", 0, "Token lifetime (default 24h)")
	if err := tokenGenerateCmd.MarkFlagRequired("device"); err != nil {
		panic(fmt.Sprintf("failed to mark device as required: %v", err))
	}
	if err := tokenGenerateCmd.MarkFlagRequired("secret"); err != nil {
		panic(fmt.Sprintf("failed to mark secret as required: %v", err))
	}
}
