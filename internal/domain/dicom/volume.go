package dicom

import (
	"time"
)

// Volume entity, one row per series loaded into the scene registry.
// Geometry fields are derived from the instance headers at load time.
type Volume struct {
	ID                   string  `validate:"required,uuid4"`
	SeriesInstanceUID    string  `validate:"required,dicomuid"`
	StudyInstanceUID     string  `validate:"required,dicomuid"`
	Name                 string  `validate:"required,min=1,max=255"`
	Modality             string  `validate:"omitempty,max=16"`
	Rows                 int     `validate:"required,min=1"`
	Columns              int     `validate:"required,min=1"`
	SliceCount           int     `validate:"required,min=1"`
	PixelSpacingRow      float64 `validate:"gte=0"`
	PixelSpacingCol      float64 `validate:"gte=0"`
	SpacingBetweenSlices float64 `validate:"gte=0"`
	FrameOfReferenceUID  string  `validate:"omitempty,dicomuid"`
	LoadedAt             time.Time
}

// Validate for validating Volume struct
func (v *Volume) Validate() error {
	validate, err := newValidate()
	if err != nil {
		return err
	}

	if err := validate.Struct(v); err != nil {
		return flattenValidationError(err)
	}

	return nil
}
