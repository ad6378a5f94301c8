package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/persistence/models"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"

	"gorm.io/gorm"
)

type gormVolumeRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewGormVolumeRepository creates a new GORM-based VolumeRepository implementation
func NewGormVolumeRepository(db *gorm.DB, logger logger.Logger) (dicom.VolumeRepository, error) {
	return &gormVolumeRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *gormVolumeRepository) Create(ctx context.Context, volume *dicom.Volume) error {
	// Validate domain entity (business rules)
	if err := volume.Validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	// Convert to GORM model
	model := &models.VolumeModel{}
	model.FromDomain(volume)

	// Persist to database
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create volume: %w", err)
	}

	r.logger.Info("Registered volume with id ", volume.ID)
	return nil
}

func (r *gormVolumeRepository) List(ctx context.Context, query *dicom.VolumeQuery) ([]*dicom.Volume, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query parameters: %w", err)
	}

	var modelList []*models.VolumeModel
	dbQuery := r.db.WithContext(ctx).Model(&models.VolumeModel{})

	// Apply filters
	if query.SeriesInstanceUID != "" {
		dbQuery = dbQuery.Where("series_instance_uid = ?", query.SeriesInstanceUID)
	}

	// Sorting
	if query.SortBy != "" {
		order := query.SortOrder
		if order == "" {
			order = "asc"
		}
		dbQuery = dbQuery.Order(fmt.Sprintf("%s %s", query.SortBy, order))
	}

	// Pagination
	if query.Limit > 0 {
		dbQuery = dbQuery.Limit(query.Limit)
	}
	if query.Offset > 0 {
		dbQuery = dbQuery.Offset(query.Offset)
	}

	if err := dbQuery.Find(&modelList).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch volumes: %w", err)
	}

	// Convert to domain models
	domainList := make([]*dicom.Volume, len(modelList))
	for i, model := range modelList {
		domainList[i] = model.ToDomain()
	}

	return domainList, nil
}

func (r *gormVolumeRepository) GetByID(ctx context.Context, volumeID string) (*dicom.Volume, error) {
	var model models.VolumeModel
	if err := r.db.WithContext(ctx).Where("id = ?", volumeID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("volume with ID %s not found", volumeID)
		}
		return nil, fmt.Errorf("failed to fetch volume: %w", err)
	}
	return model.ToDomain(), nil
}

func (r *gormVolumeRepository) DeleteByID(ctx context.Context, volumeID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", volumeID).Delete(&models.VolumeModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete volume: %w", err)
	}

	r.logger.Info("Deleted volume with id ", volumeID)
	return nil
}

func (r *gormVolumeRepository) DeleteBySeries(ctx context.Context, seriesInstanceUID string) error {
	if err := r.db.WithContext(ctx).Where("series_instance_uid = ?", seriesInstanceUID).Delete(&models.VolumeModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete volumes of series: %w", err)
	}

	r.logger.Info("Deleted volumes of series ", seriesInstanceUID)
	return nil
}
