package commands

import (
	"fmt"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/connector"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"

	"github.com/spf13/cobra"
)

// GoogleCommandHandler encapsulates logic for discovering Google Healthcare
// DICOM stores through the gcloud CLI, so a DICOMweb server URL can be
// derived without typing it by hand.
type GoogleCommandHandler struct {
	discovery *connector.StoreDiscovery
	logger    logger.Logger
}

// NewGoogleCommandHandler initializes and returns a GoogleCommandHandler
// instance with a configured logger and store discovery.
func NewGoogleCommandHandler() (*GoogleCommandHandler, error) {
	loggerInstance, err := setupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	return &GoogleCommandHandler{
		discovery: connector.NewStoreDiscovery(loggerInstance),
		logger:    loggerInstance,
	}, nil
}

// ProjectsCmd lists the projects visible to the active gcloud account
func (commandHandler *GoogleCommandHandler) ProjectsCmd(cmd *cobra.Command, _ []string) {
	projects, err := commandHandler.discovery.ListProjects(cmd.Context())
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	fmt.Printf("%-32s %s\n", "ProjectID", "Name")
	for _, project := range projects {
		fmt.Printf("%-32s %s\n", project.ProjectID, project.Name)
	}
}

// DatasetsCmd lists the Healthcare API datasets of one project
func (commandHandler *GoogleCommandHandler) DatasetsCmd(cmd *cobra.Command, _ []string) {
	projectID, err := cmd.Flags().GetString("project")
	if err != nil || projectID == "" {
		commandHandler.logger.Error("the project flag is required")
		return
	}

	datasets, err := commandHandler.discovery.ListDatasets(cmd.Context(), projectID)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	fmt.Printf("%-16s %s\n", "Location", "Dataset")
	for _, dataset := range datasets {
		fmt.Printf("%-16s %s\n", dataset.Location, dataset.DatasetID)
	}
}

// StoresCmd lists the DICOM stores of one dataset and prints the DICOMweb
// base URL of each, ready for the connect command
func (commandHandler *GoogleCommandHandler) StoresCmd(cmd *cobra.Command, _ []string) {
	projectID, err := cmd.Flags().GetString("project")
	if err != nil || projectID == "" {
		commandHandler.logger.Error("the project flag is required")
		return
	}
	location, err := cmd.Flags().GetString("location")
	if err != nil || location == "" {
		commandHandler.logger.Error("the location flag is required")
		return
	}
	datasetID, err := cmd.Flags().GetString("dataset")
	if err != nil || datasetID == "" {
		commandHandler.logger.Error("the dataset flag is required")
		return
	}

	stores, err := commandHandler.discovery.ListDicomStores(cmd.Context(), connector.GoogleHealthcareDataset{
		ProjectID: projectID,
		Location:  location,
		DatasetID: datasetID,
	})
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	for _, store := range stores {
		fmt.Printf("%s\n  %s\n", store.StoreID, store.DicomwebBaseURL())
	}
}

// InitGoogleCommands registers Google Healthcare store discovery commands
func InitGoogleCommands(rootCmd *cobra.Command) error {
	handler, err := NewGoogleCommandHandler()

	if err != nil {
		return fmt.Errorf("failed to create google command handler %w", err)
	}

	var googleCmd = &cobra.Command{
		Use:   "google",
		Short: "Discover Google Healthcare DICOM stores via gcloud",
	}

	var projectsCmd = &cobra.Command{
		Use:   "projects",
		Short: "List visible Google Cloud projects",
		Run:   handler.ProjectsCmd,
	}
	googleCmd.AddCommand(projectsCmd)

	var datasetsCmd = &cobra.Command{
		Use:   "datasets",
		Short: "List the Healthcare API datasets of a project",
		Run:   handler.DatasetsCmd,
	}
	datasetsCmd.Flags().StringP("project", "", "", "Google Cloud project ID")
	googleCmd.AddCommand(datasetsCmd)

	var storesCmd = &cobra.Command{
		Use:   "stores",
		Short: "List the DICOM stores of a dataset with their DICOMweb URLs",
		Run:   handler.StoresCmd,
	}
	storesCmd.Flags().StringP("project", "", "", "Google Cloud project ID")
	storesCmd.Flags().StringP("location", "", "", "Dataset location, e.g. us-central1")
	storesCmd.Flags().StringP("dataset", "", "", "Dataset ID")
	googleCmd.AddCommand(storesCmd)

	rootCmd.AddCommand(googleCmd)

	return nil
}
