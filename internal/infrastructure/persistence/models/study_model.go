package models

import (
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
)

// StudyModel is the GORM database model for indexed studies (infrastructure concern)
type StudyModel struct {
	StudyInstanceUID  string    `gorm:"primaryKey;type:varchar(64)"`
	PatientName       string    `gorm:"type:varchar(255);index"`
	PatientID         string    `gorm:"type:varchar(64);index"`
	ModalitiesInStudy string    `gorm:"type:varchar(255)"`
	StudyDate         string    `gorm:"type:varchar(32);index"`
	StudyDescription  string    `gorm:"type:varchar(255)"`
	InstanceCount     int       `gorm:"not null;default:0"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (StudyModel) TableName() string {
	return "studies"
}

// ToDomain converts GORM model to domain entity
func (m *StudyModel) ToDomain() *dicom.Study {
	return &dicom.Study{
		StudyInstanceUID:  m.StudyInstanceUID,
		PatientName:       m.PatientName,
		PatientID:         m.PatientID,
		ModalitiesInStudy: m.ModalitiesInStudy,
		StudyDate:         m.StudyDate,
		StudyDescription:  m.StudyDescription,
		InstanceCount:     m.InstanceCount,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// FromDomain converts domain entity to GORM model
func (m *StudyModel) FromDomain(s *dicom.Study) {
	m.StudyInstanceUID = s.StudyInstanceUID
	m.PatientName = s.PatientName
	m.PatientID = s.PatientID
	m.ModalitiesInStudy = s.ModalitiesInStudy
	m.StudyDate = s.StudyDate
	m.StudyDescription = s.StudyDescription
	m.InstanceCount = s.InstanceCount
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
}
