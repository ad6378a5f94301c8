// Package dicomfile reads the attributes the browser needs from DICOM part 10
// files. Bulk data such as pixel data is referenced during parsing and never
// buffered, so reading a header stays cheap even for large instances.
package dicomfile

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	dicomparser "github.com/GoogleCloudPlatform/go-dicom-parser/dicom"
)

const (
	tagSOPClassUID          dicomparser.DataElementTag = 0x00080016
	tagSOPInstanceUID       dicomparser.DataElementTag = 0x00080018
	tagStudyDate            dicomparser.DataElementTag = 0x00080020
	tagModality             dicomparser.DataElementTag = 0x00080060
	tagStudyDescription     dicomparser.DataElementTag = 0x00081030
	tagSeriesDescription    dicomparser.DataElementTag = 0x0008103E
	tagPatientName          dicomparser.DataElementTag = 0x00100010
	tagPatientID            dicomparser.DataElementTag = 0x00100020
	tagSpacingBetweenSlices dicomparser.DataElementTag = 0x00180088
	tagStudyInstanceUID     dicomparser.DataElementTag = 0x0020000D
	tagSeriesInstanceUID    dicomparser.DataElementTag = 0x0020000E
	tagSeriesNumber         dicomparser.DataElementTag = 0x00200011
	tagInstanceNumber       dicomparser.DataElementTag = 0x00200013
	tagImagePosition        dicomparser.DataElementTag = 0x00200032
	tagFrameOfReferenceUID  dicomparser.DataElementTag = 0x00200052
	tagNumberOfFrames       dicomparser.DataElementTag = 0x00280008
	tagRows                 dicomparser.DataElementTag = 0x00280010
	tagColumns              dicomparser.DataElementTag = 0x00280011
	tagPixelSpacing         dicomparser.DataElementTag = 0x00280030
)

// Header holds the attributes the browser indexes from one DICOM file.
type Header struct {
	SOPInstanceUID       string
	SOPClassUID          string
	StudyInstanceUID     string
	SeriesInstanceUID    string
	PatientName          string
	PatientID            string
	StudyDate            string
	StudyDescription     string
	SeriesDescription    string
	SeriesNumber         string
	Modality             string
	InstanceNumber       int
	Rows                 int
	Columns              int
	NumberOfFrames       int
	PixelSpacing         []float64
	SpacingBetweenSlices float64
	ImagePositionPatient []float64
	FrameOfReferenceUID  string
}

// Parse reads one DICOM file from r and extracts the indexed attributes.
func Parse(r io.Reader) (*Header, error) {
	dataSet, err := dicomparser.Parse(r,
		dicomparser.ReferenceBulkData(dicomparser.DefaultBulkDataDefinition),
		dicomparser.DropGroupLengths)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DICOM file: %w", err)
	}

	header := &Header{
		SOPInstanceUID:       stringAttr(dataSet, tagSOPInstanceUID),
		SOPClassUID:          stringAttr(dataSet, tagSOPClassUID),
		StudyInstanceUID:     stringAttr(dataSet, tagStudyInstanceUID),
		SeriesInstanceUID:    stringAttr(dataSet, tagSeriesInstanceUID),
		PatientName:          stringAttr(dataSet, tagPatientName),
		PatientID:            stringAttr(dataSet, tagPatientID),
		StudyDate:            stringAttr(dataSet, tagStudyDate),
		StudyDescription:     stringAttr(dataSet, tagStudyDescription),
		SeriesDescription:    stringAttr(dataSet, tagSeriesDescription),
		SeriesNumber:         stringAttr(dataSet, tagSeriesNumber),
		Modality:             stringAttr(dataSet, tagModality),
		InstanceNumber:       intAttr(dataSet, tagInstanceNumber),
		Rows:                 intAttr(dataSet, tagRows),
		Columns:              intAttr(dataSet, tagColumns),
		NumberOfFrames:       intAttr(dataSet, tagNumberOfFrames),
		PixelSpacing:         floatsAttr(dataSet, tagPixelSpacing),
		ImagePositionPatient: floatsAttr(dataSet, tagImagePosition),
		FrameOfReferenceUID:  stringAttr(dataSet, tagFrameOfReferenceUID),
	}
	if spacing, ok := floatAttr(dataSet, tagSpacingBetweenSlices); ok {
		header.SpacingBetweenSlices = spacing
	}

	if header.StudyInstanceUID == "" || header.SeriesInstanceUID == "" || header.SOPInstanceUID == "" {
		return nil, fmt.Errorf("DICOM file is missing study, series or SOP instance UID")
	}

	return header, nil
}

// ParseFile reads one DICOM file from disk and extracts the indexed attributes.
func ParseFile(path string) (*Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DICOM file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// stringAttr returns the first value of a text attribute, trimmed of the
// padding some writers append.
func stringAttr(dataSet *dicomparser.DataSet, tag dicomparser.DataElementTag) string {
	values := stringValues(dataSet, tag)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func intAttr(dataSet *dicomparser.DataSet, tag dicomparser.DataElementTag) int {
	element, ok := dataSet.Elements[tag]
	if !ok {
		return 0
	}
	switch v := element.ValueField.(type) {
	case []string:
		if len(v) == 0 {
			return 0
		}
		n, err := strconv.Atoi(strings.TrimSpace(v[0]))
		if err != nil {
			return 0
		}
		return n
	case []uint16:
		if len(v) == 0 {
			return 0
		}
		return int(v[0])
	case []int16:
		if len(v) == 0 {
			return 0
		}
		return int(v[0])
	case []uint32:
		if len(v) == 0 {
			return 0
		}
		return int(v[0])
	case []int32:
		if len(v) == 0 {
			return 0
		}
		return int(v[0])
	default:
		return 0
	}
}

func floatAttr(dataSet *dicomparser.DataSet, tag dicomparser.DataElementTag) (float64, bool) {
	values := floatsAttr(dataSet, tag)
	if len(values) == 0 {
		return 0, false
	}
	return values[0], true
}

func floatsAttr(dataSet *dicomparser.DataSet, tag dicomparser.DataElementTag) []float64 {
	element, ok := dataSet.Elements[tag]
	if !ok {
		return nil
	}
	switch v := element.ValueField.(type) {
	case []string:
		values := make([]float64, 0, len(v))
		for _, s := range v {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				continue
			}
			values = append(values, f)
		}
		return values
	case []float64:
		return v
	case []float32:
		values := make([]float64, len(v))
		for i, f := range v {
			values[i] = float64(f)
		}
		return values
	default:
		return nil
	}
}

func stringValues(dataSet *dicomparser.DataSet, tag dicomparser.DataElementTag) []string {
	element, ok := dataSet.Elements[tag]
	if !ok {
		return nil
	}
	values, ok := element.ValueField.([]string)
	if !ok {
		return nil
	}
	trimmed := make([]string, len(values))
	for i, s := range values {
		trimmed[i] = strings.TrimSpace(s)
	}
	return trimmed
}
