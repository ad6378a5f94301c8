package dicom

// StudyQuery filters and paginates local study listings
type StudyQuery struct {
	Filter    string `validate:"omitempty,max=255"`
	SortBy    string `validate:"omitempty,oneof=study_date patient_name patient_id study_description created_at"`
	SortOrder string `validate:"omitempty,oneof=asc desc"`
	Limit     int    `validate:"gte=0"`
	Offset    int    `validate:"gte=0"`
}

// NewStudyQuery creates a StudyQuery with default sorting (newest studies first)
func NewStudyQuery() *StudyQuery {
	return &StudyQuery{
		SortBy:    "study_date",
		SortOrder: "desc",
	}
}

// Validate for validating StudyQuery struct
func (q *StudyQuery) Validate() error {
	validate, err := newValidate()
	if err != nil {
		return err
	}

	if err := validate.Struct(q); err != nil {
		return flattenValidationError(err)
	}

	return nil
}

// SeriesQuery filters and paginates local series listings
type SeriesQuery struct {
	StudyInstanceUID string `validate:"omitempty,dicomuid"`
	Filter           string `validate:"omitempty,max=255"`
	SortBy           string `validate:"omitempty,oneof=series_number modality series_description created_at"`
	SortOrder        string `validate:"omitempty,oneof=asc desc"`
	Limit            int    `validate:"gte=0"`
	Offset           int    `validate:"gte=0"`
}

// NewSeriesQuery creates a SeriesQuery sorted by series number
func NewSeriesQuery() *SeriesQuery {
	return &SeriesQuery{
		SortBy:    "series_number",
		SortOrder: "asc",
	}
}

// Validate for validating SeriesQuery struct
func (q *SeriesQuery) Validate() error {
	validate, err := newValidate()
	if err != nil {
		return err
	}

	if err := validate.Struct(q); err != nil {
		return flattenValidationError(err)
	}

	return nil
}

// InstanceQuery filters and paginates local instance listings
type InstanceQuery struct {
	SeriesInstanceUID string `validate:"omitempty,dicomuid"`
	SortBy            string `validate:"omitempty,oneof=instance_number sop_instance_uid created_at"`
	SortOrder         string `validate:"omitempty,oneof=asc desc"`
	Limit             int    `validate:"gte=0"`
	Offset            int    `validate:"gte=0"`
}

// NewInstanceQuery creates an InstanceQuery sorted by instance number
func NewInstanceQuery() *InstanceQuery {
	return &InstanceQuery{
		SortBy:    "instance_number",
		SortOrder: "asc",
	}
}

// Validate for validating InstanceQuery struct
func (q *InstanceQuery) Validate() error {
	validate, err := newValidate()
	if err != nil {
		return err
	}

	if err := validate.Struct(q); err != nil {
		return flattenValidationError(err)
	}

	return nil
}

// VolumeQuery filters and paginates scene registry listings
type VolumeQuery struct {
	SeriesInstanceUID string `validate:"omitempty,dicomuid"`
	SortBy            string `validate:"omitempty,oneof=loaded_at name modality"`
	SortOrder         string `validate:"omitempty,oneof=asc desc"`
	Limit             int    `validate:"gte=0"`
	Offset            int    `validate:"gte=0"`
}

// NewVolumeQuery creates a VolumeQuery with the most recently loaded volume first
func NewVolumeQuery() *VolumeQuery {
	return &VolumeQuery{
		SortBy:    "loaded_at",
		SortOrder: "desc",
	}
}

// Validate for validating VolumeQuery struct
func (q *VolumeQuery) Validate() error {
	validate, err := newValidate()
	if err != nil {
		return err
	}

	if err := validate.Struct(q); err != nil {
		return flattenValidationError(err)
	}

	return nil
}
