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

type gormStudyRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewGormStudyRepository creates a new GORM-based StudyRepository implementation
func NewGormStudyRepository(db *gorm.DB, logger logger.Logger) (dicom.StudyRepository, error) {
	return &gormStudyRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *gormStudyRepository) Upsert(ctx context.Context, study *dicom.Study) error {
	// Validate domain entity (business rules)
	if err := study.Validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	// Convert to GORM model
	model := &models.StudyModel{}
	model.FromDomain(study)

	// Save updates the existing row or inserts a new one
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to upsert study: %w", err)
	}

	r.logger.Info("Upserted study with UID ", study.StudyInstanceUID)
	return nil
}

func (r *gormStudyRepository) List(ctx context.Context, query *dicom.StudyQuery) ([]*dicom.Study, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query parameters: %w", err)
	}

	var modelList []*models.StudyModel
	dbQuery := r.db.WithContext(ctx).Model(&models.StudyModel{})

	// Apply filters
	if query.Filter != "" {
		pattern := "%" + query.Filter + "%"
		dbQuery = dbQuery.Where(
			"study_instance_uid LIKE ? OR patient_name LIKE ? OR patient_id LIKE ? OR modalities_in_study LIKE ? OR study_date LIKE ? OR study_description LIKE ?",
			pattern, pattern, pattern, pattern, pattern, pattern)
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
		return nil, fmt.Errorf("failed to fetch studies: %w", err)
	}

	// Convert to domain models
	domainList := make([]*dicom.Study, len(modelList))
	for i, model := range modelList {
		domainList[i] = model.ToDomain()
	}

	return domainList, nil
}

func (r *gormStudyRepository) GetByUID(ctx context.Context, studyInstanceUID string) (*dicom.Study, error) {
	var model models.StudyModel
	if err := r.db.WithContext(ctx).Where("study_instance_uid = ?", studyInstanceUID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("study with UID %s not found", studyInstanceUID)
		}
		return nil, fmt.Errorf("failed to fetch study: %w", err)
	}
	return model.ToDomain(), nil
}

func (r *gormStudyRepository) DeleteByUID(ctx context.Context, studyInstanceUID string) error {
	if err := r.db.WithContext(ctx).Where("study_instance_uid = ?", studyInstanceUID).Delete(&models.StudyModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete study: %w", err)
	}

	r.logger.Info("Deleted study with UID ", studyInstanceUID)
	return nil
}
