// Package main is the entry point for the dicomweb-browser-cli application.
// It initializes the root command and registers the sub-commands for remote
// browsing, series retrieval, the local index, the scene registry and
// persisted settings, then executes the command-line interface.
package main

import (
	"fmt"
	"log"
	"os"

	commands "github.com/lassoan/SlicerDICOMwebBrowser/cmd/dicomweb-browser-cli/internal/commands"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	// Best-effort .env load for local development
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "dicomweb-browser-cli",
		Short: "DICOMweb browsing and retrieval CLI tool",
		Long: `dicomweb-browser-cli is a command-line tool for browsing DICOMweb servers
and managing a local DICOM index.

It queries studies and series via QIDO-RS, downloads instances via WADO-RS,
indexes them into a local database with a managed file store and can load
indexed series into a volume registry.

Server authentication is configured through environment variables:
- DWB_REMOTE_AUTH_PROFILE (plain, bearer, basic, google, kheops)
- DWB_REMOTE_TOKEN
- DWB_REMOTE_USERNAME
- DWB_REMOTE_PASSWORD
When unset, the profile is detected from the server URL.`,
	}

	// Initialize all command groups BEFORE executing
	if err := initializeCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize commands: %w", err)
	}

	// Execute root command ONCE after all commands are registered
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

// initializeCommands registers all command groups with the root command.
func initializeCommands(rootCmd *cobra.Command) error {
	// Register remote browsing commands
	if err := commands.InitRemoteCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize remote commands: %w", err)
	}

	// Register download/load commands
	if err := commands.InitRetrievalCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize retrieval commands: %w", err)
	}

	// Register local index commands
	if err := commands.InitLocalCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize local commands: %w", err)
	}

	// Register scene registry commands
	if err := commands.InitVolumeCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize volume commands: %w", err)
	}

	// Register settings and cache commands
	if err := commands.InitSettingsCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize settings commands: %w", err)
	}

	// Register Google Healthcare store discovery commands
	if err := commands.InitGoogleCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize google commands: %w", err)
	}

	return nil
}

// init sets up any necessary initialization before main runs.
func init() {
	// Set log flags for better error messages
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	// Ensure proper exit codes on errors
	log.SetOutput(os.Stderr)
}
