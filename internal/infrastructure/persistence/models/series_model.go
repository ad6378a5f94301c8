package models

import (
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
)

// SeriesModel is the GORM database model for indexed series (infrastructure concern)
type SeriesModel struct {
	SeriesInstanceUID              string    `gorm:"primaryKey;type:varchar(64)"`
	StudyInstanceUID               string    `gorm:"not null;index;type:varchar(64)"`
	Modality                       string    `gorm:"type:varchar(16)"`
	SeriesNumber                   string    `gorm:"type:varchar(16)"`
	SeriesDescription              string    `gorm:"type:varchar(255)"`
	NumberOfSeriesRelatedInstances int       `gorm:"not null;default:0"`
	InstanceCount                  int       `gorm:"not null;default:0"`
	CreatedAt                      time.Time `gorm:"not null"`
	UpdatedAt                      time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (SeriesModel) TableName() string {
	return "series"
}

// ToDomain converts GORM model to domain entity
func (m *SeriesModel) ToDomain() *dicom.Series {
	return &dicom.Series{
		SeriesInstanceUID:              m.SeriesInstanceUID,
		StudyInstanceUID:               m.StudyInstanceUID,
		Modality:                       m.Modality,
		SeriesNumber:                   m.SeriesNumber,
		SeriesDescription:              m.SeriesDescription,
		NumberOfSeriesRelatedInstances: m.NumberOfSeriesRelatedInstances,
		InstanceCount:                  m.InstanceCount,
		CreatedAt:                      m.CreatedAt,
		UpdatedAt:                      m.UpdatedAt,
	}
}

// FromDomain converts domain entity to GORM model
func (m *SeriesModel) FromDomain(s *dicom.Series) {
	m.SeriesInstanceUID = s.SeriesInstanceUID
	m.StudyInstanceUID = s.StudyInstanceUID
	m.Modality = s.Modality
	m.SeriesNumber = s.SeriesNumber
	m.SeriesDescription = s.SeriesDescription
	m.NumberOfSeriesRelatedInstances = s.NumberOfSeriesRelatedInstances
	m.InstanceCount = s.InstanceCount
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
}
