package models

import (
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
)

// InstanceModel is the GORM database model for indexed SOP instances (infrastructure concern)
type InstanceModel struct {
	SOPInstanceUID    string    `gorm:"primaryKey;type:varchar(64)"`
	SeriesInstanceUID string    `gorm:"not null;index;type:varchar(64)"`
	StudyInstanceUID  string    `gorm:"not null;index;type:varchar(64)"`
	SOPClassUID       string    `gorm:"type:varchar(64)"`
	InstanceNumber    int       `gorm:"not null;default:0"`
	Rows              int       `gorm:"not null;default:0"`
	Columns           int       `gorm:"not null;default:0"`
	NumberOfFrames    int       `gorm:"not null;default:0"`
	FilePath          string    `gorm:"not null;type:varchar(1024)"`
	FileSize          int64     `gorm:"not null;default:0"`
	CreatedAt         time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (InstanceModel) TableName() string {
	return "instances"
}

// ToDomain converts GORM model to domain entity
func (m *InstanceModel) ToDomain() *dicom.Instance {
	return &dicom.Instance{
		SOPInstanceUID:    m.SOPInstanceUID,
		SeriesInstanceUID: m.SeriesInstanceUID,
		StudyInstanceUID:  m.StudyInstanceUID,
		SOPClassUID:       m.SOPClassUID,
		InstanceNumber:    m.InstanceNumber,
		Rows:              m.Rows,
		Columns:           m.Columns,
		NumberOfFrames:    m.NumberOfFrames,
		FilePath:          m.FilePath,
		FileSize:          m.FileSize,
		CreatedAt:         m.CreatedAt,
	}
}

// FromDomain converts domain entity to GORM model
func (m *InstanceModel) FromDomain(i *dicom.Instance) {
	m.SOPInstanceUID = i.SOPInstanceUID
	m.SeriesInstanceUID = i.SeriesInstanceUID
	m.StudyInstanceUID = i.StudyInstanceUID
	m.SOPClassUID = i.SOPClassUID
	m.InstanceNumber = i.InstanceNumber
	m.Rows = i.Rows
	m.Columns = i.Columns
	m.NumberOfFrames = i.NumberOfFrames
	m.FilePath = i.FilePath
	m.FileSize = i.FileSize
	m.CreatedAt = i.CreatedAt
}
