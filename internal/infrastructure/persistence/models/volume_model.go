package models

import (
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
)

// VolumeModel is the GORM database model for the scene registry (infrastructure concern)
type VolumeModel struct {
	ID                   string    `gorm:"primaryKey;type:uuid"`
	SeriesInstanceUID    string    `gorm:"not null;index;type:varchar(64)"`
	StudyInstanceUID     string    `gorm:"not null;index;type:varchar(64)"`
	Name                 string    `gorm:"not null;type:varchar(255)"`
	Modality             string    `gorm:"type:varchar(16)"`
	Rows                 int       `gorm:"not null"`
	Columns              int       `gorm:"not null"`
	SliceCount           int       `gorm:"not null"`
	PixelSpacingRow      float64   `gorm:"not null;default:0"`
	PixelSpacingCol      float64   `gorm:"not null;default:0"`
	SpacingBetweenSlices float64   `gorm:"not null;default:0"`
	FrameOfReferenceUID  string    `gorm:"type:varchar(64)"`
	LoadedAt             time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (VolumeModel) TableName() string {
	return "volumes"
}

// ToDomain converts GORM model to domain entity
func (m *VolumeModel) ToDomain() *dicom.Volume {
	return &dicom.Volume{
		ID:                   m.ID,
		SeriesInstanceUID:    m.SeriesInstanceUID,
		StudyInstanceUID:     m.StudyInstanceUID,
		Name:                 m.Name,
		Modality:             m.Modality,
		Rows:                 m.Rows,
		Columns:              m.Columns,
		SliceCount:           m.SliceCount,
		PixelSpacingRow:      m.PixelSpacingRow,
		PixelSpacingCol:      m.PixelSpacingCol,
		SpacingBetweenSlices: m.SpacingBetweenSlices,
		FrameOfReferenceUID:  m.FrameOfReferenceUID,
		LoadedAt:             m.LoadedAt,
	}
}

// FromDomain converts domain entity to GORM model
func (m *VolumeModel) FromDomain(v *dicom.Volume) {
	m.ID = v.ID
	m.SeriesInstanceUID = v.SeriesInstanceUID
	m.StudyInstanceUID = v.StudyInstanceUID
	m.Name = v.Name
	m.Modality = v.Modality
	m.Rows = v.Rows
	m.Columns = v.Columns
	m.SliceCount = v.SliceCount
	m.PixelSpacingRow = v.PixelSpacingRow
	m.PixelSpacingCol = v.PixelSpacingCol
	m.SpacingBetweenSlices = v.SpacingBetweenSlices
	m.FrameOfReferenceUID = v.FrameOfReferenceUID
	m.LoadedAt = v.LoadedAt
}
