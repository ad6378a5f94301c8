package commands

import (
	"fmt"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"

	"github.com/spf13/cobra"
)

// VolumeCommandHandler encapsulates logic for inspecting the scene registry
// via CLI.
type VolumeCommandHandler struct {
	logger logger.Logger
}

// NewVolumeCommandHandler initializes and returns a VolumeCommandHandler
// instance with a configured logger.
func NewVolumeCommandHandler() (*VolumeCommandHandler, error) {
	loggerInstance, err := setupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	return &VolumeCommandHandler{
		logger: loggerInstance,
	}, nil
}

// ListCmd lists the volumes of the scene registry
func (commandHandler *VolumeCommandHandler) ListCmd(cmd *cobra.Command, _ []string) {
	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	volumes, err := env.localIndex.ListVolumes(cmd.Context(), dicom.NewVolumeQuery())
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	fmt.Printf("%-38s %-8s %-8s %s\n", "ID", "Modality", "Slices", "Name")
	for _, volume := range volumes {
		fmt.Printf("%-38s %-8s %-8d %s\n",
			volume.ID, volume.Modality, volume.SliceCount, volume.Name)
	}
}

// ShowCmd prints the full properties of one volume
func (commandHandler *VolumeCommandHandler) ShowCmd(cmd *cobra.Command, _ []string) {
	volumeID, err := cmd.Flags().GetString("id")
	if err != nil || volumeID == "" {
		commandHandler.logger.Error("the id flag is required")
		return
	}

	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	volume, err := env.localIndex.GetVolume(cmd.Context(), volumeID)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	fmt.Printf("ID:                   %s\n", volume.ID)
	fmt.Printf("Name:                 %s\n", volume.Name)
	fmt.Printf("SeriesInstanceUID:    %s\n", volume.SeriesInstanceUID)
	fmt.Printf("StudyInstanceUID:     %s\n", volume.StudyInstanceUID)
	fmt.Printf("Modality:             %s\n", volume.Modality)
	fmt.Printf("Dimensions:           %d x %d x %d\n", volume.Rows, volume.Columns, volume.SliceCount)
	fmt.Printf("PixelSpacing:         %g x %g mm\n", volume.PixelSpacingRow, volume.PixelSpacingCol)
	fmt.Printf("SpacingBetweenSlices: %g mm\n", volume.SpacingBetweenSlices)
	fmt.Printf("FrameOfReferenceUID:  %s\n", volume.FrameOfReferenceUID)
	fmt.Printf("LoadedAt:             %s\n", volume.LoadedAt.Local().Format("2006-01-02 15:04:05"))
}

// RemoveCmd removes a volume from the scene registry
func (commandHandler *VolumeCommandHandler) RemoveCmd(cmd *cobra.Command, _ []string) {
	volumeID, err := cmd.Flags().GetString("id")
	if err != nil || volumeID == "" {
		commandHandler.logger.Error("the id flag is required")
		return
	}

	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	if err := env.localIndex.DeleteVolume(cmd.Context(), volumeID); err != nil {
		commandHandler.logger.Error(err)
		return
	}

	commandHandler.logger.Info("Removed volume ", volumeID)
}

// InitVolumeCommands registers scene registry commands
func InitVolumeCommands(rootCmd *cobra.Command) error {
	handler, err := NewVolumeCommandHandler()

	if err != nil {
		return fmt.Errorf("failed to create volume command handler %w", err)
	}

	var volumesCmd = &cobra.Command{
		Use:   "volumes",
		Short: "Inspect the scene registry",
	}

	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List loaded volumes",
		Run:   handler.ListCmd,
	}
	volumesCmd.AddCommand(listCmd)

	var showCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the properties of one volume",
		Run:   handler.ShowCmd,
	}
	showCmd.Flags().StringP("id", "", "", "Volume ID")
	volumesCmd.AddCommand(showCmd)

	var removeCmd = &cobra.Command{
		Use:   "remove",
		Short: "Remove a volume from the scene registry",
		Run:   handler.RemoveCmd,
	}
	removeCmd.Flags().StringP("id", "", "", "Volume ID")
	volumesCmd.AddCommand(removeCmd)

	rootCmd.AddCommand(volumesCmd)

	return nil
}
