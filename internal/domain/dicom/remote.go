package dicom

import (
	"strings"
)

// RemoteStudy is a study as reported by a QIDO-RS search, before anything is
// persisted locally. The JSON tags define the response cache file format.
type RemoteStudy struct {
	StudyInstanceUID  string `json:"studyInstanceUid"`
	PatientName       string `json:"patientName"`
	PatientID         string `json:"patientId"`
	ModalitiesInStudy string `json:"modalitiesInStudy"`
	StudyDate         string `json:"studyDate"`
	StudyDescription  string `json:"studyDescription"`
}

// MatchesFilter reports whether any column of the study contains the filter
// text, case-insensitively. An empty filter matches everything.
func (s *RemoteStudy) MatchesFilter(filter string) bool {
	if filter == "" {
		return true
	}
	filter = strings.ToLower(filter)

	columns := []string{
		s.StudyInstanceUID,
		s.PatientName,
		s.PatientID,
		s.ModalitiesInStudy,
		s.StudyDate,
		s.StudyDescription,
	}
	for _, column := range columns {
		if strings.Contains(strings.ToLower(column), filter) {
			return true
		}
	}
	return false
}

// RemoteSeries is a series as reported by a QIDO-RS search. Stored reports
// whether the series is already fully present in the local index.
type RemoteSeries struct {
	SeriesInstanceUID string `json:"seriesInstanceUid"`
	StudyInstanceUID  string `json:"studyInstanceUid"`
	Modality          string `json:"modality"`
	SeriesNumber      string `json:"seriesNumber"`
	SeriesDescription string `json:"seriesDescription"`
	NumberOfInstances int    `json:"numberOfInstances"`
	Stored            bool   `json:"stored"`
}

// RemoteInstanceRef identifies one SOP instance of a remote series.
type RemoteInstanceRef struct {
	SOPInstanceUID string `json:"sopInstanceUid"`
}
