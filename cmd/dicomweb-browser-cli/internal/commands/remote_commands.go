package commands

import (
	"fmt"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"

	"github.com/spf13/cobra"
)

// RemoteCommandHandler encapsulates logic for browsing and editing a remote
// DICOMweb server via CLI.
type RemoteCommandHandler struct {
	logger logger.Logger
}

// NewRemoteCommandHandler initializes and returns a RemoteCommandHandler
// instance with a configured logger.
func NewRemoteCommandHandler() (*RemoteCommandHandler, error) {
	loggerInstance, err := setupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	return &RemoteCommandHandler{
		logger: loggerInstance,
	}, nil
}

// ConnectCmd fetches the study list of a server and records the URL in the
// persisted server history
func (commandHandler *RemoteCommandHandler) ConnectCmd(cmd *cobra.Command, _ []string) {
	serverURL, err := cmd.Flags().GetString("server")
	if err != nil || serverURL == "" {
		commandHandler.logger.Error("the server flag is required")
		return
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		commandHandler.logger.Error("invalid no-cache flag ", err)
		return
	}

	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	result, err := env.browse.Studies(cmd.Context(), &dicom.BrowseStudiesRequest{
		ServerURL: serverURL,
		UseCache:  env.userSettings.UseCache && !noCache,
	})
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	env.rememberServerURL(serverURL)
	printStudyTable(result)
	commandHandler.logger.Info("Connected to ", serverURL, ", ", len(result.Studies), " studies")
}

// StudiesCmd lists the studies of the current or given server, filtered by a
// case-insensitive substring across every study column
func (commandHandler *RemoteCommandHandler) StudiesCmd(cmd *cobra.Command, _ []string) {
	serverFlag, err := cmd.Flags().GetString("server")
	if err != nil {
		commandHandler.logger.Error("invalid server flag ", err)
		return
	}
	filter, err := cmd.Flags().GetString("filter")
	if err != nil {
		commandHandler.logger.Error("invalid filter flag ", err)
		return
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		commandHandler.logger.Error("invalid no-cache flag ", err)
		return
	}

	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	serverURL, err := env.resolveServerURL(serverFlag)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	result, err := env.browse.Studies(cmd.Context(), &dicom.BrowseStudiesRequest{
		ServerURL: serverURL,
		Filter:    filter,
		UseCache:  env.userSettings.UseCache && !noCache,
	})
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	printStudyTable(result)
}

// SeriesCmd lists the series of one remote study including whether each
// series is already stored in the local index
func (commandHandler *RemoteCommandHandler) SeriesCmd(cmd *cobra.Command, _ []string) {
	studyUID, err := cmd.Flags().GetString("study")
	if err != nil || studyUID == "" {
		commandHandler.logger.Error("the study flag is required")
		return
	}
	serverFlag, err := cmd.Flags().GetString("server")
	if err != nil {
		commandHandler.logger.Error("invalid server flag ", err)
		return
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		commandHandler.logger.Error("invalid no-cache flag ", err)
		return
	}

	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	serverURL, err := env.resolveServerURL(serverFlag)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	result, err := env.browse.Series(cmd.Context(), &dicom.BrowseSeriesRequest{
		ServerURL:        serverURL,
		StudyInstanceUID: studyUID,
		UseCache:         env.userSettings.UseCache && !noCache,
	})
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	printSeriesTable(result)
}

// DeleteSeriesCmd deletes a series on the remote server after confirmation
// and refreshes the affected listings with the cache bypassed
func (commandHandler *RemoteCommandHandler) DeleteSeriesCmd(cmd *cobra.Command, _ []string) {
	studyUID, err := cmd.Flags().GetString("study")
	if err != nil || studyUID == "" {
		commandHandler.logger.Error("the study flag is required")
		return
	}
	seriesUID, err := cmd.Flags().GetString("series")
	if err != nil || seriesUID == "" {
		commandHandler.logger.Error("the series flag is required")
		return
	}
	serverFlag, err := cmd.Flags().GetString("server")
	if err != nil {
		commandHandler.logger.Error("invalid server flag ", err)
		return
	}
	assumeYes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		commandHandler.logger.Error("invalid yes flag ", err)
		return
	}

	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	serverURL, err := env.resolveServerURL(serverFlag)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	if !confirm(fmt.Sprintf("Delete series %s on %s?", seriesUID, serverURL), assumeYes) {
		commandHandler.logger.Info("Aborted")
		return
	}

	if err := env.browse.DeleteRemoteSeries(cmd.Context(), serverURL, studyUID, seriesUID); err != nil {
		commandHandler.logger.Error(err)
		return
	}

	// Refresh the series listing with the cache bypassed
	if _, err := env.browse.Series(cmd.Context(), &dicom.BrowseSeriesRequest{
		ServerURL:        serverURL,
		StudyInstanceUID: studyUID,
		UseCache:         false,
	}); err != nil {
		commandHandler.logger.Warn("Failed to refresh series listing: ", err.Error())
	}

	commandHandler.logger.Info("Deleted series ", seriesUID, " on ", serverURL)
}

func printStudyTable(result *dicom.BrowseStudiesResult) {
	if result.FromCache {
		fmt.Printf("Retrieved at %s (cached)\n", result.RetrievedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("%-44s %-24s %-12s %-10s %-10s %s\n",
		"StudyInstanceUID", "PatientName", "PatientID", "Modality", "Date", "Description")
	for _, study := range result.Studies {
		fmt.Printf("%-44s %-24s %-12s %-10s %-10s %s\n",
			study.StudyInstanceUID, study.PatientName, study.PatientID,
			study.ModalitiesInStudy, study.StudyDate, study.StudyDescription)
	}
}

func printSeriesTable(result *dicom.BrowseSeriesResult) {
	if result.FromCache {
		fmt.Printf("Retrieved at %s (cached)\n", result.RetrievedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("%-52s %-8s %-8s %-10s %-8s %s\n",
		"SeriesInstanceUID", "Number", "Modality", "Instances", "Status", "Description")
	for _, series := range result.Series {
		status := "remote"
		if series.Stored {
			status = "stored"
		}
		fmt.Printf("%-52s %-8s %-8s %-10d %-8s %s\n",
			series.SeriesInstanceUID, series.SeriesNumber, series.Modality,
			series.NumberOfInstances, status, series.SeriesDescription)
	}
}

// InitRemoteCommands registers remote browsing commands
func InitRemoteCommands(rootCmd *cobra.Command) error {
	handler, err := NewRemoteCommandHandler()

	if err != nil {
		return fmt.Errorf("failed to create remote command handler %w", err)
	}

	var connectCmd = &cobra.Command{
		Use:   "connect",
		Short: "Connect to a DICOMweb server and list its studies",
		Run:   handler.ConnectCmd,
	}
	connectCmd.Flags().StringP("server", "", "", "DICOMweb base URL, e.g. https://host/dcm4chee-arc/aets/DCM4CHEE/rs")
	connectCmd.Flags().BoolP("no-cache", "", false, "Bypass the server response cache")
	rootCmd.AddCommand(connectCmd)

	var studiesCmd = &cobra.Command{
		Use:   "studies",
		Short: "List the studies of the current server",
		Run:   handler.StudiesCmd,
	}
	studiesCmd.Flags().StringP("server", "", "", "DICOMweb base URL (defaults to the last connected server)")
	studiesCmd.Flags().StringP("filter", "", "", "Case-insensitive substring matched against every study column")
	studiesCmd.Flags().BoolP("no-cache", "", false, "Bypass the server response cache")
	rootCmd.AddCommand(studiesCmd)

	var seriesCmd = &cobra.Command{
		Use:   "series",
		Short: "List the series of one remote study",
		Run:   handler.SeriesCmd,
	}
	seriesCmd.Flags().StringP("study", "", "", "StudyInstanceUID")
	seriesCmd.Flags().StringP("server", "", "", "DICOMweb base URL (defaults to the last connected server)")
	seriesCmd.Flags().BoolP("no-cache", "", false, "Bypass the server response cache")
	rootCmd.AddCommand(seriesCmd)

	var remoteCmd = &cobra.Command{
		Use:   "remote",
		Short: "Edit the remote server",
	}
	var deleteSeriesCmd = &cobra.Command{
		Use:   "delete-series",
		Short: "Delete a series on the remote server",
		Run:   handler.DeleteSeriesCmd,
	}
	deleteSeriesCmd.Flags().StringP("study", "", "", "StudyInstanceUID")
	deleteSeriesCmd.Flags().StringP("series", "", "", "SeriesInstanceUID")
	deleteSeriesCmd.Flags().StringP("server", "", "", "DICOMweb base URL (defaults to the last connected server)")
	deleteSeriesCmd.Flags().BoolP("yes", "", false, "Skip the confirmation prompt")
	remoteCmd.AddCommand(deleteSeriesCmd)
	rootCmd.AddCommand(remoteCmd)

	return nil
}
