package dicom

import (
	"time"
)

// Instance entity, one row per SOP instance in the local index.
// FilePath points into the managed store and is unique per SOPInstanceUID.
type Instance struct {
	SOPInstanceUID    string `validate:"required,dicomuid"`
	SeriesInstanceUID string `validate:"required,dicomuid"`
	StudyInstanceUID  string `validate:"required,dicomuid"`
	SOPClassUID       string `validate:"omitempty,dicomuid"`
	InstanceNumber    int    `validate:"gte=0"`
	Rows              int    `validate:"gte=0"`
	Columns           int    `validate:"gte=0"`
	NumberOfFrames    int    `validate:"gte=0"`
	FilePath          string `validate:"required"`
	FileSize          int64  `validate:"gte=0"`
	CreatedAt         time.Time
}

// Validate for validating Instance struct
func (i *Instance) Validate() error {
	validate, err := newValidate()
	if err != nil {
		return err
	}

	if err := validate.Struct(i); err != nil {
		return flattenValidationError(err)
	}

	return nil
}
