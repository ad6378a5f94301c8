package commands

import (
	"fmt"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"

	"github.com/spf13/cobra"
)

// SettingsCommandHandler encapsulates logic for the persisted user settings
// and the server response cache via CLI.
type SettingsCommandHandler struct {
	logger logger.Logger
}

// NewSettingsCommandHandler initializes and returns a SettingsCommandHandler
// instance with a configured logger.
func NewSettingsCommandHandler() (*SettingsCommandHandler, error) {
	loggerInstance, err := setupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	return &SettingsCommandHandler{
		logger: loggerInstance,
	}, nil
}

// ServersCmd prints the persisted server URL history, most recent first
func (commandHandler *SettingsCommandHandler) ServersCmd(_ *cobra.Command, _ []string) {
	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	if len(env.userSettings.ServerURLHistory) == 0 {
		fmt.Println("No servers connected yet")
		return
	}
	for i, url := range env.userSettings.ServerURLHistory {
		marker := " "
		if url == env.userSettings.ServerURL {
			marker = "*"
		}
		fmt.Printf("%s %2d  %s\n", marker, i+1, url)
	}
}

// CacheClearCmd drops every cached server response
func (commandHandler *SettingsCommandHandler) CacheClearCmd(_ *cobra.Command, _ []string) {
	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	if err := env.browse.ClearCache(); err != nil {
		commandHandler.logger.Error(err)
		return
	}

	commandHandler.logger.Info("Cleared the server response cache")
}

// SetStorageCmd changes the storage root for downloaded files and the index
func (commandHandler *SettingsCommandHandler) SetStorageCmd(cmd *cobra.Command, _ []string) {
	path, err := cmd.Flags().GetString("path")
	if err != nil || path == "" {
		commandHandler.logger.Error("the path flag is required")
		return
	}

	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	env.userSettings.StoragePath = path
	if err := env.settingsStore.Save(env.userSettings); err != nil {
		commandHandler.logger.Error(err)
		return
	}

	commandHandler.logger.Info("Storage path set to ", path, " (takes effect on the next run)")
}

// InitSettingsCommands registers settings and cache commands
func InitSettingsCommands(rootCmd *cobra.Command) error {
	handler, err := NewSettingsCommandHandler()

	if err != nil {
		return fmt.Errorf("failed to create settings command handler %w", err)
	}

	var serversCmd = &cobra.Command{
		Use:   "servers",
		Short: "Print the persisted server URL history",
		Run:   handler.ServersCmd,
	}
	rootCmd.AddCommand(serversCmd)

	var cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Manage the server response cache",
	}
	var cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached server response",
		Run:   handler.CacheClearCmd,
	}
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)

	var settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Edit the persisted user settings",
	}
	var setStorageCmd = &cobra.Command{
		Use:   "set-storage",
		Short: "Change the storage root for downloads and the index",
		Run:   handler.SetStorageCmd,
	}
	setStorageCmd.Flags().StringP("path", "", "", "Storage root directory")
	settingsCmd.AddCommand(setStorageCmd)
	rootCmd.AddCommand(settingsCmd)

	return nil
}
