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

type gormSeriesRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewGormSeriesRepository creates a new GORM-based SeriesRepository implementation
func NewGormSeriesRepository(db *gorm.DB, logger logger.Logger) (dicom.SeriesRepository, error) {
	return &gormSeriesRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *gormSeriesRepository) Upsert(ctx context.Context, series *dicom.Series) error {
	// Validate domain entity (business rules)
	if err := series.Validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	// Convert to GORM model
	model := &models.SeriesModel{}
	model.FromDomain(series)

	// Save updates the existing row or inserts a new one
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to upsert series: %w", err)
	}

	r.logger.Info("Upserted series with UID ", series.SeriesInstanceUID)
	return nil
}

func (r *gormSeriesRepository) List(ctx context.Context, query *dicom.SeriesQuery) ([]*dicom.Series, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query parameters: %w", err)
	}

	var modelList []*models.SeriesModel
	dbQuery := r.db.WithContext(ctx).Model(&models.SeriesModel{})

	// Apply filters
	if query.StudyInstanceUID != "" {
		dbQuery = dbQuery.Where("study_instance_uid = ?", query.StudyInstanceUID)
	}
	if query.Filter != "" {
		pattern := "%" + query.Filter + "%"
		dbQuery = dbQuery.Where(
			"series_instance_uid LIKE ? OR modality LIKE ? OR series_number LIKE ? OR series_description LIKE ?",
			pattern, pattern, pattern, pattern)
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
		return nil, fmt.Errorf("failed to fetch series: %w", err)
	}

	// Convert to domain models
	domainList := make([]*dicom.Series, len(modelList))
	for i, model := range modelList {
		domainList[i] = model.ToDomain()
	}

	return domainList, nil
}

func (r *gormSeriesRepository) GetByUID(ctx context.Context, seriesInstanceUID string) (*dicom.Series, error) {
	var model models.SeriesModel
	if err := r.db.WithContext(ctx).Where("series_instance_uid = ?", seriesInstanceUID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("series with UID %s not found", seriesInstanceUID)
		}
		return nil, fmt.Errorf("failed to fetch series: %w", err)
	}
	return model.ToDomain(), nil
}

func (r *gormSeriesRepository) CountByStudy(ctx context.Context, studyInstanceUID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SeriesModel{}).
		Where("study_instance_uid = ?", studyInstanceUID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count series of study: %w", err)
	}
	return count, nil
}

func (r *gormSeriesRepository) DeleteByUID(ctx context.Context, seriesInstanceUID string) error {
	if err := r.db.WithContext(ctx).Where("series_instance_uid = ?", seriesInstanceUID).Delete(&models.SeriesModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete series: %w", err)
	}

	r.logger.Info("Deleted series with UID ", seriesInstanceUID)
	return nil
}
