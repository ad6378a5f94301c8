package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"
)

// localIndexService implements the LocalIndexService interface for browsing
// and editing the local index
type localIndexService struct {
	studyRepo    dicom.StudyRepository
	seriesRepo   dicom.SeriesRepository
	instanceRepo dicom.InstanceRepository
	volumeRepo   dicom.VolumeRepository
	storage      *config.StorageSettings
	logger       logger.Logger
}

// NewLocalIndexService creates a new instance of localIndexService
func NewLocalIndexService(
	studyRepo dicom.StudyRepository,
	seriesRepo dicom.SeriesRepository,
	instanceRepo dicom.InstanceRepository,
	volumeRepo dicom.VolumeRepository,
	storage *config.StorageSettings,
	logger logger.Logger,
) (dicom.LocalIndexService, error) {
	return &localIndexService{
		studyRepo:    studyRepo,
		seriesRepo:   seriesRepo,
		instanceRepo: instanceRepo,
		volumeRepo:   volumeRepo,
		storage:      storage,
		logger:       logger,
	}, nil
}

// ListStudies lists indexed studies considering a query filter
func (s *localIndexService) ListStudies(ctx context.Context, query *dicom.StudyQuery) ([]*dicom.Study, error) {
	if query == nil {
		query = dicom.NewStudyQuery()
	}
	studies, err := s.studyRepo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return studies, nil
}

// ListSeries lists indexed series considering a query filter
func (s *localIndexService) ListSeries(ctx context.Context, query *dicom.SeriesQuery) ([]*dicom.Series, error) {
	if query == nil {
		query = dicom.NewSeriesQuery()
	}
	series, err := s.seriesRepo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return series, nil
}

// ListInstances lists indexed instances considering a query filter
func (s *localIndexService) ListInstances(ctx context.Context, query *dicom.InstanceQuery) ([]*dicom.Instance, error) {
	if query == nil {
		query = dicom.NewInstanceQuery()
	}
	instances, err := s.instanceRepo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return instances, nil
}

// InstanceFile returns the instance row and the stored file content
func (s *localIndexService) InstanceFile(ctx context.Context, sopInstanceUID string) (*dicom.Instance, []byte, error) {
	instance, err := s.instanceRepo.GetBySOPInstanceUID(ctx, sopInstanceUID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w", err)
	}

	data, err := os.ReadFile(instance.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read stored file for instance %s: %w", sopInstanceUID, err)
	}

	return instance, data, nil
}

// DeleteSeries removes a series from the local index: volumes loaded from it,
// instance rows and stored files, the series row, and the study row when its
// last series goes.
func (s *localIndexService) DeleteSeries(ctx context.Context, seriesInstanceUID string) error {
	series, err := s.seriesRepo.GetByUID(ctx, seriesInstanceUID)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	if err := s.volumeRepo.DeleteBySeries(ctx, seriesInstanceUID); err != nil {
		return fmt.Errorf("%w", err)
	}
	if err := s.instanceRepo.DeleteBySeries(ctx, seriesInstanceUID); err != nil {
		return fmt.Errorf("%w", err)
	}

	seriesDir := filepath.Join(s.storage.DicomDir(), series.StudyInstanceUID, seriesInstanceUID)
	if err := os.RemoveAll(seriesDir); err != nil {
		return fmt.Errorf("failed to remove stored files of series %s: %w", seriesInstanceUID, err)
	}

	if err := s.seriesRepo.DeleteByUID(ctx, seriesInstanceUID); err != nil {
		return fmt.Errorf("%w", err)
	}

	if err := s.refreshStudyAfterDelete(ctx, series.StudyInstanceUID); err != nil {
		return err
	}

	s.logger.Info("Removed series ", seriesInstanceUID, " from the local index")
	return nil
}

// refreshStudyAfterDelete drops the study row when its last series is gone,
// otherwise recomputes the counters kept on it.
func (s *localIndexService) refreshStudyAfterDelete(ctx context.Context, studyUID string) error {
	remaining, err := s.seriesRepo.List(ctx, &dicom.SeriesQuery{StudyInstanceUID: studyUID})
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	if len(remaining) == 0 {
		if err := s.studyRepo.DeleteByUID(ctx, studyUID); err != nil {
			return fmt.Errorf("%w", err)
		}
		if err := os.RemoveAll(filepath.Join(s.storage.DicomDir(), studyUID)); err != nil {
			return fmt.Errorf("failed to remove stored files of study %s: %w", studyUID, err)
		}
		return nil
	}

	study, err := s.studyRepo.GetByUID(ctx, studyUID)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	study.InstanceCount = 0
	modalities := ""
	for _, series := range remaining {
		study.InstanceCount += series.InstanceCount
		modalities = mergeModalities(modalities, series.Modality)
	}
	study.ModalitiesInStudy = modalities

	if err := s.studyRepo.Upsert(ctx, study); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// mergeModalities unions a modality into a ", " separated list.
func mergeModalities(existing, modality string) string {
	if modality == "" {
		return existing
	}
	if existing == "" {
		return modality
	}
	for _, m := range strings.Split(existing, ", ") {
		if m == modality {
			return existing
		}
	}
	return existing + ", " + modality
}

// ListVolumes lists the scene registry
func (s *localIndexService) ListVolumes(ctx context.Context, query *dicom.VolumeQuery) ([]*dicom.Volume, error) {
	if query == nil {
		query = dicom.NewVolumeQuery()
	}
	volumes, err := s.volumeRepo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return volumes, nil
}

// GetVolume retrieves one volume by ID
func (s *localIndexService) GetVolume(ctx context.Context, volumeID string) (*dicom.Volume, error) {
	volume, err := s.volumeRepo.GetByID(ctx, volumeID)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return volume, nil
}

// DeleteVolume removes a volume from the scene registry
func (s *localIndexService) DeleteVolume(ctx context.Context, volumeID string) error {
	if err := s.volumeRepo.DeleteByID(ctx, volumeID); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
