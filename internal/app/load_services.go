package app

import (
	"context"
	"fmt"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"
)

// loadService implements the LoadService interface for loading indexed series
// into the scene registry
type loadService struct {
	seriesRepo   dicom.SeriesRepository
	instanceRepo dicom.InstanceRepository
	assembler    dicom.VolumeAssembler
	volumeRepo   dicom.VolumeRepository
	logger       logger.Logger
}

// NewLoadService creates a new instance of loadService
func NewLoadService(
	seriesRepo dicom.SeriesRepository,
	instanceRepo dicom.InstanceRepository,
	assembler dicom.VolumeAssembler,
	volumeRepo dicom.VolumeRepository,
	logger logger.Logger,
) (dicom.LoadService, error) {
	return &loadService{
		seriesRepo:   seriesRepo,
		instanceRepo: instanceRepo,
		assembler:    assembler,
		volumeRepo:   volumeRepo,
		logger:       logger,
	}, nil
}

// LoadSeries assembles an already indexed series into a volume and registers
// it in the scene registry.
func (s *loadService) LoadSeries(ctx context.Context, seriesInstanceUID string) (*dicom.Volume, error) {
	series, err := s.seriesRepo.GetByUID(ctx, seriesInstanceUID)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	query := dicom.NewInstanceQuery()
	query.SeriesInstanceUID = seriesInstanceUID
	instances, err := s.instanceRepo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	volume, err := s.assembler.Assemble(ctx, series, instances)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	if err := s.volumeRepo.Create(ctx, volume); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	s.logger.Info("Loaded series ", seriesInstanceUID, " as volume ", volume.ID)
	return volume, nil
}
