package cmd

import (
	"testing"
)

// Test command initialization and registration
func TestCommandsRegistered(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd should not be nil")
	}

	commands := rootCmd.Commands()
	expectedCommands := map[string]bool{
		"send":   false,
		"token":  false,
		"status": false,
	}

	for _, cmd := range commands {
		cmdName := cmd.Use
		for key := range expectedCommands {
			if len(cmdName) >= len(key) && cmdName[:len(key)] == key {
				expectedCommands[key] = true
				break
			}
		}
	}

	for cmdName, found := range expectedCommands {
		if !found {
			t.Errorf("expected command '%s' to be registered with root command", cmdName)
		}
	}
}

func TestTokenCommandHasSubcommands(t *testing.T) {
	if tokenCmd == nil {
		t.Fatal("tokenCmd should not be nil")
	}

	found := false
	for _, cmd := range tokenCmd.Commands() {
		if cmd.Use == "generate" {
			found = true
			break
		}
	}
	if !found {
		t.Error("token command should have 'generate' subcommand")
	}
}

func TestGlobalFlags(t *testing.T) {
	flags := []string{"edge-url", "token", "output"}
	for _, flagName := range flags {
		flag := rootCmd.PersistentFlags().Lookup(flagName)
		if flag == nil {
			t.Errorf("expected global flag '%s' to be defined", flagName)
		}
	}
}

func TestSendCommandFlags(t *testing.T) {
	if sendCmd == nil {
		t.Fatal("sendCmd should not be nil")
	}

	flags := []string{"device", "seq", "count", "temperature", "humidity", "pressure"}
	for _, flagName := range flags {
		flag := sendCmd.Flags().Lookup(flagName)
		if flag == nil {
			t.Errorf("expected flag '%s' to be defined on send command", flagName)
		}
	}
}

func TestTokenGenerateCommandFlags(t *testing.T) {
	if tokenGenerateCmd == nil {
		t.Fatal("tokenGenerateCmd should not be nil")
	}

	flags := []string{"device", "secret", "ttl"}
	for _, flagName := range flags {
		flag := tokenGenerateCmd.Flags().Lookup(flagName)
		if flag == nil {
			t.Errorf("expected flag '%s' to be defined on token generate command", flagName)
		}
	}
}
