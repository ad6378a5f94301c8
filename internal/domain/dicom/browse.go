package dicom

import (
	"time"
)

// BrowseStudiesRequest asks for the study list of a DICOMweb server.
// UseCache allows serving a previously cached response; Filter is a
// case-insensitive substring matched against every study column.
type BrowseStudiesRequest struct {
	ServerURL string `validate:"required,url"`
	Filter    string `validate:"omitempty,max=255"`
	UseCache  bool
}

// Validate for validating BrowseStudiesRequest struct
func (r *BrowseStudiesRequest) Validate() error {
	validate, err := newValidate()
	if err != nil {
		return err
	}

	if err := validate.Struct(r); err != nil {
		return flattenValidationError(err)
	}

	return nil
}

// BrowseStudiesResult carries the study list plus cache provenance.
// RetrievedAt is when the payload was fetched from the server, which for
// cached responses predates the call.
type BrowseStudiesResult struct {
	Studies     []*RemoteStudy
	FromCache   bool
	RetrievedAt time.Time
}

// BrowseSeriesRequest asks for the series list of one remote study.
type BrowseSeriesRequest struct {
	ServerURL        string `validate:"required,url"`
	StudyInstanceUID string `validate:"required,dicomuid"`
	UseCache         bool
}

// Validate for validating BrowseSeriesRequest struct
func (r *BrowseSeriesRequest) Validate() error {
	validate, err := newValidate()
	if err != nil {
		return err
	}

	if err := validate.Struct(r); err != nil {
		return flattenValidationError(err)
	}

	return nil
}

// BrowseSeriesResult carries the series list plus cache provenance.
type BrowseSeriesResult struct {
	Series      []*RemoteSeries
	FromCache   bool
	RetrievedAt time.Time
}
