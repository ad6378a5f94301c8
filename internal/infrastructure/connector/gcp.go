package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"
)

const healthcareAPIBase = "https://healthcare.googleapis.com/v1"

// GoogleCloudProject is one entry of `gcloud projects list`.
type GoogleCloudProject struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
}

// GoogleHealthcareDataset identifies a Healthcare API dataset.
type GoogleHealthcareDataset struct {
	ProjectID string `json:"projectId"`
	Location  string `json:"location"`
	DatasetID string `json:"datasetId"`
}

// GoogleDicomStore identifies a DICOM store inside a Healthcare API dataset.
type GoogleDicomStore struct {
	ProjectID string `json:"projectId"`
	Location  string `json:"location"`
	DatasetID string `json:"datasetId"`
	StoreID   string `json:"storeId"`
}

// DicomwebBaseURL returns the DICOMweb endpoint of the store.
func (s GoogleDicomStore) DicomwebBaseURL() string {
	return fmt.Sprintf("%s/projects/%s/locations/%s/datasets/%s/dicomStores/%s/dicomWeb",
		healthcareAPIBase, s.ProjectID, s.Location, s.DatasetID, s.StoreID)
}

// StoreDiscovery lists Google Healthcare projects, datasets and DICOM stores
// through the gcloud CLI so a DICOMweb server URL can be derived without
// typing it by hand.
type StoreDiscovery struct {
	logger     logger.Logger
	runCommand commandRunner
}

// NewStoreDiscovery creates a StoreDiscovery backed by the local gcloud binary.
func NewStoreDiscovery(logger logger.Logger) *StoreDiscovery {
	return &StoreDiscovery{
		logger:     logger,
		runCommand: runCommand,
	}
}

// ListProjects returns the projects visible to the active gcloud account.
func (d *StoreDiscovery) ListProjects(ctx context.Context) ([]GoogleCloudProject, error) {
	out, err := d.runCommand(ctx, "gcloud", "projects", "list", "--format=json")
	if err != nil {
		return nil, fmt.Errorf("failed to list Google Cloud projects: %w", err)
	}

	var projects []GoogleCloudProject
	if err := json.Unmarshal(out, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode gcloud projects output: %w", err)
	}

	d.logger.Info("Found ", len(projects), " Google Cloud projects")
	return projects, nil
}

// ListDatasets returns the Healthcare API datasets of the project, across
// all locations.
func (d *StoreDiscovery) ListDatasets(ctx context.Context, projectID string) ([]GoogleHealthcareDataset, error) {
	out, err := d.runCommand(ctx, "gcloud", "healthcare", "datasets", "list",
		"--project="+projectID, "--location=-", "--format=json")
	if err != nil {
		return nil, fmt.Errorf("failed to list healthcare datasets in project %s: %w", projectID, err)
	}

	var raw []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode gcloud datasets output: %w", err)
	}

	datasets := make([]GoogleHealthcareDataset, 0, len(raw))
	for _, entry := range raw {
		resource := parseResourceName(entry.Name)
		datasets = append(datasets, GoogleHealthcareDataset{
			ProjectID: resource["projects"],
			Location:  resource["locations"],
			DatasetID: resource["datasets"],
		})
	}

	d.logger.Info("Found ", len(datasets), " healthcare datasets in project ", projectID)
	return datasets, nil
}

// ListDicomStores returns the DICOM stores of the dataset.
func (d *StoreDiscovery) ListDicomStores(ctx context.Context, dataset GoogleHealthcareDataset) ([]GoogleDicomStore, error) {
	out, err := d.runCommand(ctx, "gcloud", "healthcare", "dicom-stores", "list",
		"--project="+dataset.ProjectID, "--location="+dataset.Location,
		"--dataset="+dataset.DatasetID, "--format=json")
	if err != nil {
		return nil, fmt.Errorf("failed to list DICOM stores in dataset %s: %w", dataset.DatasetID, err)
	}

	var raw []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode gcloud dicom-stores output: %w", err)
	}

	stores := make([]GoogleDicomStore, 0, len(raw))
	for _, entry := range raw {
		resource := parseResourceName(entry.Name)
		stores = append(stores, GoogleDicomStore{
			ProjectID: resource["projects"],
			Location:  resource["locations"],
			DatasetID: resource["datasets"],
			StoreID:   resource["dicomStores"],
		})
	}

	d.logger.Info("Found ", len(stores), " DICOM stores in dataset ", dataset.DatasetID)
	return stores, nil
}

// parseResourceName splits a resource name such as
// projects/p/locations/l/datasets/d into its collection/id pairs.
func parseResourceName(name string) map[string]string {
	parts := strings.Split(strings.Trim(name, "/"), "/")
	resource := make(map[string]string, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		resource[parts[i]] = parts[i+1]
	}
	return resource
}
