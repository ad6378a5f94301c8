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

type gormInstanceRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewGormInstanceRepository creates a new GORM-based InstanceRepository implementation
func NewGormInstanceRepository(db *gorm.DB, logger logger.Logger) (dicom.InstanceRepository, error) {
	return &gormInstanceRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *gormInstanceRepository) Upsert(ctx context.Context, instance *dicom.Instance) error {
	// Validate domain entity (business rules)
	if err := instance.Validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	// Convert to GORM model
	model := &models.InstanceModel{}
	model.FromDomain(instance)

	// Save updates the existing row or inserts a new one
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to upsert instance: %w", err)
	}

	return nil
}

func (r *gormInstanceRepository) List(ctx context.Context, query *dicom.InstanceQuery) ([]*dicom.Instance, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query parameters: %w", err)
	}

	var modelList []*models.InstanceModel
	dbQuery := r.db.WithContext(ctx).Model(&models.InstanceModel{})

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
		return nil, fmt.Errorf("failed to fetch instances: %w", err)
	}

	// Convert to domain models
	domainList := make([]*dicom.Instance, len(modelList))
	for i, model := range modelList {
		domainList[i] = model.ToDomain()
	}

	return domainList, nil
}

func (r *gormInstanceRepository) GetBySOPInstanceUID(ctx context.Context, sopInstanceUID string) (*dicom.Instance, error) {
	var model models.InstanceModel
	if err := r.db.WithContext(ctx).Where("sop_instance_uid = ?", sopInstanceUID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("instance with UID %s not found", sopInstanceUID)
		}
		return nil, fmt.Errorf("failed to fetch instance: %w", err)
	}
	return model.ToDomain(), nil
}

func (r *gormInstanceRepository) ExistsBySOPInstanceUID(ctx context.Context, sopInstanceUID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InstanceModel{}).
		Where("sop_instance_uid = ?", sopInstanceUID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check instance existence: %w", err)
	}
	return count > 0, nil
}

func (r *gormInstanceRepository) CountBySeries(ctx context.Context, seriesInstanceUID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InstanceModel{}).
		Where("series_instance_uid = ?", seriesInstanceUID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count instances of series: %w", err)
	}
	return count, nil
}

func (r *gormInstanceRepository) DeleteBySeries(ctx context.Context, seriesInstanceUID string) error {
	if err := r.db.WithContext(ctx).Where("series_instance_uid = ?", seriesInstanceUID).Delete(&models.InstanceModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete instances of series: %w", err)
	}

	r.logger.Info("Deleted instance rows of series ", seriesInstanceUID)
	return nil
}
