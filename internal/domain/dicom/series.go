package dicom

import (
	"time"
)

// Series entity, one row per series in the local index.
// NumberOfSeriesRelatedInstances is the count the remote server reported at
// download time, InstanceCount is what the local index actually holds.
type Series struct {
	SeriesInstanceUID              string `validate:"required,dicomuid"`
	StudyInstanceUID               string `validate:"required,dicomuid"`
	Modality                       string `validate:"omitempty,max=16"`
	SeriesNumber                   string `validate:"omitempty,max=16"`
	SeriesDescription              string `validate:"omitempty,max=255"`
	NumberOfSeriesRelatedInstances int    `validate:"gte=0"`
	InstanceCount                  int    `validate:"gte=0"`
	CreatedAt                      time.Time
	UpdatedAt                      time.Time
}

// Validate for validating Series struct
func (s *Series) Validate() error {
	validate, err := newValidate()
	if err != nil {
		return err
	}

	if err := validate.Struct(s); err != nil {
		return flattenValidationError(err)
	}

	return nil
}
