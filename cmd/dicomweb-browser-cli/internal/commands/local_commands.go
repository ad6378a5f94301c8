package commands

import (
	"fmt"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// LocalCommandHandler encapsulates logic for browsing and editing the local
// DICOM index via CLI.
type LocalCommandHandler struct {
	logger logger.Logger
}

// NewLocalCommandHandler initializes and returns a LocalCommandHandler
// instance with a configured logger.
func NewLocalCommandHandler() (*LocalCommandHandler, error) {
	loggerInstance, err := setupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	return &LocalCommandHandler{
		logger: loggerInstance,
	}, nil
}

// StudiesCmd lists the studies of the local index
func (commandHandler *LocalCommandHandler) StudiesCmd(cmd *cobra.Command, _ []string) {
	filter, err := cmd.Flags().GetString("filter")
	if err != nil {
		commandHandler.logger.Error("invalid filter flag ", err)
		return
	}

	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	query := dicom.NewStudyQuery()
	query.Filter = filter
	studies, err := env.localIndex.ListStudies(cmd.Context(), query)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	fmt.Printf("%-44s %-24s %-12s %-10s %-10s %s\n",
		"StudyInstanceUID", "PatientName", "PatientID", "Modality", "Date", "Instances")
	for _, study := range studies {
		fmt.Printf("%-44s %-24s %-12s %-10s %-10s %d\n",
			study.StudyInstanceUID, study.PatientName, study.PatientID,
			study.ModalitiesInStudy, study.StudyDate, study.InstanceCount)
	}
}

// SeriesCmd lists the indexed series of one study
func (commandHandler *LocalCommandHandler) SeriesCmd(cmd *cobra.Command, _ []string) {
	studyUID, err := cmd.Flags().GetString("study")
	if err != nil {
		commandHandler.logger.Error("invalid study flag ", err)
		return
	}
	filter, err := cmd.Flags().GetString("filter")
	if err != nil {
		commandHandler.logger.Error("invalid filter flag ", err)
		return
	}

	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	query := dicom.NewSeriesQuery()
	query.StudyInstanceUID = studyUID
	query.Filter = filter
	series, err := env.localIndex.ListSeries(cmd.Context(), query)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	fmt.Printf("%-52s %-8s %-8s %-10s %s\n",
		"SeriesInstanceUID", "Number", "Modality", "Instances", "Description")
	for _, s := range series {
		fmt.Printf("%-52s %-8s %-8s %-10d %s\n",
			s.SeriesInstanceUID, s.SeriesNumber, s.Modality, s.InstanceCount, s.SeriesDescription)
	}
}

// InstancesCmd lists the indexed instances of one series
func (commandHandler *LocalCommandHandler) InstancesCmd(cmd *cobra.Command, _ []string) {
	seriesUID, err := cmd.Flags().GetString("series")
	if err != nil || seriesUID == "" {
		commandHandler.logger.Error("the series flag is required")
		return
	}

	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	query := dicom.NewInstanceQuery()
	query.SeriesInstanceUID = seriesUID
	instances, err := env.localIndex.ListInstances(cmd.Context(), query)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	fmt.Printf("%-56s %-8s %-10s %s\n", "SOPInstanceUID", "Number", "Size", "Path")
	for _, instance := range instances {
		fmt.Printf("%-56s %-8d %-10s %s\n",
			instance.SOPInstanceUID, instance.InstanceNumber,
			humanize.Bytes(uint64(instance.FileSize)), instance.FilePath)
	}
}

// RemoveSeriesCmd deletes a series from the local index after confirmation:
// instance rows and stored files, loaded volumes, the series row and the
// study row when its last series goes
func (commandHandler *LocalCommandHandler) RemoveSeriesCmd(cmd *cobra.Command, _ []string) {
	seriesUID, err := cmd.Flags().GetString("series")
	if err != nil || seriesUID == "" {
		commandHandler.logger.Error("the series flag is required")
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

	if !confirm(fmt.Sprintf("Remove series %s and its files from the local index?", seriesUID), assumeYes) {
		commandHandler.logger.Info("Aborted")
		return
	}

	if err := env.localIndex.DeleteSeries(cmd.Context(), seriesUID); err != nil {
		commandHandler.logger.Error(err)
		return
	}

	commandHandler.logger.Info("Removed series ", seriesUID, " from the local index")
}

// InitLocalCommands registers local index commands
func InitLocalCommands(rootCmd *cobra.Command) error {
	handler, err := NewLocalCommandHandler()

	if err != nil {
		return fmt.Errorf("failed to create local command handler %w", err)
	}

	var localCmd = &cobra.Command{
		Use:   "local",
		Short: "Browse and edit the local DICOM index",
	}

	var studiesCmd = &cobra.Command{
		Use:   "studies",
		Short: "List indexed studies",
		Run:   handler.StudiesCmd,
	}
	studiesCmd.Flags().StringP("filter", "", "", "Case-insensitive substring filter")
	localCmd.AddCommand(studiesCmd)

	var seriesCmd = &cobra.Command{
		Use:   "series",
		Short: "List indexed series",
		Run:   handler.SeriesCmd,
	}
	seriesCmd.Flags().StringP("study", "", "", "Restrict to one StudyInstanceUID")
	seriesCmd.Flags().StringP("filter", "", "", "Case-insensitive substring filter")
	localCmd.AddCommand(seriesCmd)

	var instancesCmd = &cobra.Command{
		Use:   "instances",
		Short: "List the indexed instances of one series",
		Run:   handler.InstancesCmd,
	}
	instancesCmd.Flags().StringP("series", "", "", "SeriesInstanceUID")
	localCmd.AddCommand(instancesCmd)

	var removeSeriesCmd = &cobra.Command{
		Use:   "remove-series",
		Short: "Remove a series and its stored files from the local index",
		Run:   handler.RemoveSeriesCmd,
	}
	removeSeriesCmd.Flags().StringP("series", "", "", "SeriesInstanceUID")
	removeSeriesCmd.Flags().BoolP("yes", "", false, "Skip the confirmation prompt")
	localCmd.AddCommand(removeSeriesCmd)

	rootCmd.AddCommand(localCmd)

	return nil
}
