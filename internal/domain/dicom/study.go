package dicom

import (
	"time"
)

// Study entity, one row per study in the local index
type Study struct {
	StudyInstanceUID  string `validate:"required,dicomuid"`
	PatientName       string `validate:"omitempty,max=255"`
	PatientID         string `validate:"omitempty,max=64"`
	ModalitiesInStudy string `validate:"omitempty,max=255"`
	StudyDate         string `validate:"omitempty,max=32"`
	StudyDescription  string `validate:"omitempty,max=255"`
	InstanceCount     int    `validate:"gte=0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate for validating Study struct
func (s *Study) Validate() error {
	validate, err := newValidate()
	if err != nil {
		return err
	}

	if err := validate.Struct(s); err != nil {
		return flattenValidationError(err)
	}

	return nil
}
