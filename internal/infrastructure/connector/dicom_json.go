package connector

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
)

// DICOM JSON attribute tags read from QIDO-RS responses (PS3.18 F.2).
const (
	tagStudyInstanceUID               = "0020000D"
	tagPatientName                    = "00100010"
	tagPatientID                      = "00100020"
	tagModalitiesInStudy              = "00080061"
	tagStudyDate                      = "00080020"
	tagStudyDescription               = "00081030"
	tagSeriesInstanceUID              = "0020000E"
	tagModality                       = "00080060"
	tagSeriesNumber                   = "00200011"
	tagSeriesDescription              = "0008103E"
	tagNumberOfSeriesRelatedInstances = "00201209"
	tagSOPInstanceUID                 = "00080018"
)

// attribute is a single DICOM JSON attribute: a VR and an optional value array.
type attribute struct {
	VR    string        `json:"vr"`
	Value []interface{} `json:"Value,omitempty"`
}

// dataset maps 8-digit uppercase hex tags to attributes.
type dataset map[string]attribute

// stringValue renders the attribute values under tag as a single string.
// Person names are read from the Alphabetic group, multi-valued attributes
// are joined with ", " and missing tags decode to the empty string.
func (d dataset) stringValue(tag string) string {
	attr, ok := d[tag]
	if !ok {
		return ""
	}

	parts := make([]string, 0, len(attr.Value))
	for _, raw := range attr.Value {
		switch v := raw.(type) {
		case string:
			parts = append(parts, v)
		case float64:
			// IS and DS attributes arrive as JSON numbers from some servers.
			parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
		case map[string]interface{}:
			if alphabetic, ok := v["Alphabetic"].(string); ok {
				parts = append(parts, alphabetic)
			}
		}
	}
	return strings.Join(parts, ", ")
}

// intValue renders the first attribute value under tag as an int, or 0.
func (d dataset) intValue(tag string) int {
	attr, ok := d[tag]
	if !ok || len(attr.Value) == 0 {
		return 0
	}

	switch v := attr.Value[0].(type) {
	case float64:
		return int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func decodeDatasets(body []byte) ([]dataset, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var datasets []dataset
	if err := json.Unmarshal(body, &datasets); err != nil {
		return nil, fmt.Errorf("failed to decode DICOM JSON response: %w", err)
	}
	return datasets, nil
}

func decodeStudies(body []byte) ([]*dicom.RemoteStudy, error) {
	datasets, err := decodeDatasets(body)
	if err != nil {
		return nil, err
	}

	studies := make([]*dicom.RemoteStudy, 0, len(datasets))
	for _, ds := range datasets {
		studies = append(studies, &dicom.RemoteStudy{
			StudyInstanceUID:  ds.stringValue(tagStudyInstanceUID),
			PatientName:       ds.stringValue(tagPatientName),
			PatientID:         ds.stringValue(tagPatientID),
			ModalitiesInStudy: ds.stringValue(tagModalitiesInStudy),
			StudyDate:         ds.stringValue(tagStudyDate),
			StudyDescription:  ds.stringValue(tagStudyDescription),
		})
	}
	return studies, nil
}

func decodeSeries(body []byte) ([]*dicom.RemoteSeries, error) {
	datasets, err := decodeDatasets(body)
	if err != nil {
		return nil, err
	}

	series := make([]*dicom.RemoteSeries, 0, len(datasets))
	for _, ds := range datasets {
		series = append(series, &dicom.RemoteSeries{
			SeriesInstanceUID: ds.stringValue(tagSeriesInstanceUID),
			Modality:          ds.stringValue(tagModality),
			SeriesNumber:      ds.stringValue(tagSeriesNumber),
			SeriesDescription: ds.stringValue(tagSeriesDescription),
			NumberOfInstances: ds.intValue(tagNumberOfSeriesRelatedInstances),
		})
	}
	return series, nil
}

func decodeInstanceRefs(body []byte) ([]*dicom.RemoteInstanceRef, error) {
	datasets, err := decodeDatasets(body)
	if err != nil {
		return nil, err
	}

	refs := make([]*dicom.RemoteInstanceRef, 0, len(datasets))
	for _, ds := range datasets {
		refs = append(refs, &dicom.RemoteInstanceRef{
			SOPInstanceUID: ds.stringValue(tagSOPInstanceUID),
		})
	}
	return refs, nil
}
