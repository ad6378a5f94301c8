package v1

import (
	"errors"
	"fmt"
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/retrieval"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/validators"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the payload of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// InfoResponse confirms an operation that has no dedicated payload.
type InfoResponse struct {
	Message string `json:"message"`
}

// RemoteStudyResponse is one study reported by a QIDO-RS study search.
type RemoteStudyResponse struct {
	StudyInstanceUID  string `json:"studyInstanceUid"`
	PatientName       string `json:"patientName"`
	PatientID         string `json:"patientId"`
	ModalitiesInStudy string `json:"modalitiesInStudy"`
	StudyDate         string `json:"studyDate"`
	StudyDescription  string `json:"studyDescription"`
}

// RemoteSeriesResponse is one series reported by a QIDO-RS series search.
// Stored reports whether the series is fully present in the local index.
type RemoteSeriesResponse struct {
	SeriesInstanceUID string `json:"seriesInstanceUid"`
	StudyInstanceUID  string `json:"studyInstanceUid"`
	Modality          string `json:"modality"`
	SeriesNumber      string `json:"seriesNumber"`
	SeriesDescription string `json:"seriesDescription"`
	NumberOfInstances int    `json:"numberOfInstances"`
	Stored            bool   `json:"stored"`
}

// RetrievalItemRequest names one series to download.
type RetrievalItemRequest struct {
	StudyInstanceUID  string `json:"studyInstanceUid" validate:"required,dicomuid"`
	SeriesInstanceUID string `json:"seriesInstanceUid" validate:"required,dicomuid"`
}

// StartRetrievalRequest queues series for download and optional loading.
type StartRetrievalRequest struct {
	ServerURL string                 `json:"serverUrl" validate:"required,url"`
	Mode      string                 `json:"mode" validate:"required,oneof=Index Load"`
	Items     []RetrievalItemRequest `json:"items" validate:"required,min=1,dive"`
}

// Validate for validating StartRetrievalRequest struct
func (r *StartRetrievalRequest) Validate() error {
	validate := validator.New()

	if err := validators.RegisterDicomValidators(validate); err != nil {
		return fmt.Errorf("failed to register custom validator: %w", err)
	}

	err := validate.Struct(r)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var messages []string
			for _, fieldErr := range validationErrors {
				messages = append(messages, fmt.Sprintf("Field: %s, Tag: %s", fieldErr.Field(), fieldErr.Tag()))
			}
			return fmt.Errorf("validation failed: %v", messages)
		}
		return fmt.Errorf("validation error: %w", err)
	}

	return nil
}

// ToRetrievalRequest converts the DTO into the domain request.
func (r *StartRetrievalRequest) ToRetrievalRequest() *retrieval.Request {
	items := make([]retrieval.Item, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, retrieval.Item{
			StudyInstanceUID:  item.StudyInstanceUID,
			SeriesInstanceUID: item.SeriesInstanceUID,
		})
	}
	return &retrieval.Request{
		ServerURL: r.ServerURL,
		Mode:      retrieval.Mode(r.Mode),
		Items:     items,
	}
}

// RetrievalItemResponse reports the progress of one series within a job.
type RetrievalItemResponse struct {
	StudyInstanceUID  string `json:"studyInstanceUid"`
	SeriesInstanceUID string `json:"seriesInstanceUid"`
	Status            string `json:"status"`
	InstancesTotal    int    `json:"instancesTotal"`
	InstancesDone     int    `json:"instancesDone"`
	InstancesSkipped  int    `json:"instancesSkipped"`
	BytesDownloaded   int64  `json:"bytesDownloaded"`
	VolumeID          string `json:"volumeId,omitempty"`
	Error             string `json:"error,omitempty"`
}

// RetrievalJobResponse reports a retrieval job and its per-series progress.
type RetrievalJobResponse struct {
	ID         string                  `json:"id"`
	ServerURL  string                  `json:"serverUrl"`
	Mode       string                  `json:"mode"`
	Status     string                  `json:"status"`
	Items      []RetrievalItemResponse `json:"items"`
	StartedAt  time.Time               `json:"startedAt"`
	FinishedAt *time.Time              `json:"finishedAt,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// StudyResponse is one study row of the local index.
type StudyResponse struct {
	StudyInstanceUID  string    `json:"studyInstanceUid"`
	PatientName       string    `json:"patientName"`
	PatientID         string    `json:"patientId"`
	ModalitiesInStudy string    `json:"modalitiesInStudy"`
	StudyDate         string    `json:"studyDate"`
	StudyDescription  string    `json:"studyDescription"`
	InstanceCount     int       `json:"instanceCount"`
	CreatedAt         time.Time `json:"createdAt"`
}

// SeriesResponse is one series row of the local index.
type SeriesResponse struct {
	SeriesInstanceUID              string    `json:"seriesInstanceUid"`
	StudyInstanceUID               string    `json:"studyInstanceUid"`
	Modality                       string    `json:"modality"`
	SeriesNumber                   string    `json:"seriesNumber"`
	SeriesDescription              string    `json:"seriesDescription"`
	NumberOfSeriesRelatedInstances int       `json:"numberOfSeriesRelatedInstances"`
	InstanceCount                  int       `json:"instanceCount"`
	CreatedAt                      time.Time `json:"createdAt"`
}

// InstanceResponse is one instance row of the local index.
type InstanceResponse struct {
	SOPInstanceUID    string    `json:"sopInstanceUid"`
	SeriesInstanceUID string    `json:"seriesInstanceUid"`
	StudyInstanceUID  string    `json:"studyInstanceUid"`
	SOPClassUID       string    `json:"sopClassUid"`
	InstanceNumber    int       `json:"instanceNumber"`
	Rows              int       `json:"rows"`
	Columns           int       `json:"columns"`
	NumberOfFrames    int       `json:"numberOfFrames"`
	FileSize          int64     `json:"fileSize"`
	CreatedAt         time.Time `json:"createdAt"`
}

// VolumeResponse is one entry of the scene registry.
type VolumeResponse struct {
	ID                   string    `json:"id"`
	SeriesInstanceUID    string    `json:"seriesInstanceUid"`
	StudyInstanceUID     string    `json:"studyInstanceUid"`
	Name                 string    `json:"name"`
	Modality             string    `json:"modality"`
	Rows                 int       `json:"rows"`
	Columns              int       `json:"columns"`
	SliceCount           int       `json:"sliceCount"`
	PixelSpacingRow      float64   `json:"pixelSpacingRow"`
	PixelSpacingCol      float64   `json:"pixelSpacingCol"`
	SpacingBetweenSlices float64   `json:"spacingBetweenSlices"`
	FrameOfReferenceUID  string    `json:"frameOfReferenceUid"`
	LoadedAt             time.Time `json:"loadedAt"`
}

func newRemoteStudyResponse(study *dicom.RemoteStudy) RemoteStudyResponse {
	return RemoteStudyResponse{
		StudyInstanceUID:  study.StudyInstanceUID,
		PatientName:       study.PatientName,
		PatientID:         study.PatientID,
		ModalitiesInStudy: study.ModalitiesInStudy,
		StudyDate:         study.StudyDate,
		StudyDescription:  study.StudyDescription,
	}
}

func newRemoteSeriesResponse(series *dicom.RemoteSeries) RemoteSeriesResponse {
	return RemoteSeriesResponse{
		SeriesInstanceUID: series.SeriesInstanceUID,
		StudyInstanceUID:  series.StudyInstanceUID,
		Modality:          series.Modality,
		SeriesNumber:      series.SeriesNumber,
		SeriesDescription: series.SeriesDescription,
		NumberOfInstances: series.NumberOfInstances,
		Stored:            series.Stored,
	}
}

func newRetrievalJobResponse(job *retrieval.Job) RetrievalJobResponse {
	items := make([]RetrievalItemResponse, 0, len(job.Items))
	for _, item := range job.Items {
		items = append(items, RetrievalItemResponse{
			StudyInstanceUID:  item.StudyInstanceUID,
			SeriesInstanceUID: item.SeriesInstanceUID,
			Status:            string(item.Status),
			InstancesTotal:    item.InstancesTotal,
			InstancesDone:     item.InstancesDone,
			InstancesSkipped:  item.InstancesSkipped,
			BytesDownloaded:   item.BytesDownloaded,
			VolumeID:          item.VolumeID,
			Error:             item.Error,
		})
	}

	response := RetrievalJobResponse{
		ID:        job.ID,
		ServerURL: job.ServerURL,
		Mode:      string(job.Mode),
		Status:    string(job.Status),
		Items:     items,
		StartedAt: job.StartedAt,
		Error:     job.Error,
	}
	if !job.FinishedAt.IsZero() {
		finishedAt := job.FinishedAt
		response.FinishedAt = &finishedAt
	}
	return response
}

func newStudyResponse(study *dicom.Study) StudyResponse {
	return StudyResponse{
		StudyInstanceUID:  study.StudyInstanceUID,
		PatientName:       study.PatientName,
		PatientID:         study.PatientID,
		ModalitiesInStudy: study.ModalitiesInStudy,
		StudyDate:         study.StudyDate,
		StudyDescription:  study.StudyDescription,
		InstanceCount:     study.InstanceCount,
		CreatedAt:         study.CreatedAt,
	}
}

func newSeriesResponse(series *dicom.Series) SeriesResponse {
	return SeriesResponse{
		SeriesInstanceUID:              series.SeriesInstanceUID,
		StudyInstanceUID:               series.StudyInstanceUID,
		Modality:                       series.Modality,
		SeriesNumber:                   series.SeriesNumber,
		SeriesDescription:              series.SeriesDescription,
		NumberOfSeriesRelatedInstances: series.NumberOfSeriesRelatedInstances,
		InstanceCount:                  series.InstanceCount,
		CreatedAt:                      series.CreatedAt,
	}
}

func newInstanceResponse(instance *dicom.Instance) InstanceResponse {
	return InstanceResponse{
		SOPInstanceUID:    instance.SOPInstanceUID,
		SeriesInstanceUID: instance.SeriesInstanceUID,
		StudyInstanceUID:  instance.StudyInstanceUID,
		SOPClassUID:       instance.SOPClassUID,
		InstanceNumber:    instance.InstanceNumber,
		Rows:              instance.Rows,
		Columns:           instance.Columns,
		NumberOfFrames:    instance.NumberOfFrames,
		FileSize:          instance.FileSize,
		CreatedAt:         instance.CreatedAt,
	}
}

func newVolumeResponse(volume *dicom.Volume) VolumeResponse {
	return VolumeResponse{
		ID:                   volume.ID,
		SeriesInstanceUID:    volume.SeriesInstanceUID,
		StudyInstanceUID:     volume.StudyInstanceUID,
		Name:                 volume.Name,
		Modality:             volume.Modality,
		Rows:                 volume.Rows,
		Columns:              volume.Columns,
		SliceCount:           volume.SliceCount,
		PixelSpacingRow:      volume.PixelSpacingRow,
		PixelSpacingCol:      volume.PixelSpacingCol,
		SpacingBetweenSlices: volume.SpacingBetweenSlices,
		FrameOfReferenceUID:  volume.FrameOfReferenceUID,
		LoadedAt:             volume.LoadedAt,
	}
}
