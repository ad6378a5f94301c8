//go:build unit
// +build unit

package dicom

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validStudy() *Study {
	return &Study{
		StudyInstanceUID: "1.2.840.113619.2.55.3.604688119.971.1392132526.795",
		PatientName:      "Doe^John",
		PatientID:        "PAT-001",
		StudyDate:        "20240115",
		StudyDescription: "CT CHEST",
	}
}

func TestStudyValidation(t *testing.T) {
	err := validStudy().Validate()
	assert.Nil(t, err, "Expected no validation errors for valid Study")

	missingUID := validStudy()
	missingUID.StudyInstanceUID = ""
	err = missingUID.Validate()
	assert.NotNil(t, err, "Expected validation errors for missing StudyInstanceUID")
	assert.Contains(t, err.Error(), "Field: StudyInstanceUID, Tag: required")

	badUID := validStudy()
	badUID.StudyInstanceUID = "1.2.bad.uid"
	err = badUID.Validate()
	assert.NotNil(t, err, "Expected validation errors for malformed StudyInstanceUID")
	assert.Contains(t, err.Error(), "Field: StudyInstanceUID, Tag: dicomuid")
}

func validSeries() *Series {
	return &Series{
		SeriesInstanceUID: "1.2.840.113619.2.55.3.604688119.971.1392132526.795.1",
		StudyInstanceUID:  "1.2.840.113619.2.55.3.604688119.971.1392132526.795",
		Modality:          "CT",
		SeriesNumber:      "2",
		SeriesDescription: "Axial 5mm",
	}
}

func TestSeriesValidation(t *testing.T) {
	err := validSeries().Validate()
	assert.Nil(t, err, "Expected no validation errors for valid Series")

	missingStudy := validSeries()
	missingStudy.StudyInstanceUID = ""
	err = missingStudy.Validate()
	assert.NotNil(t, err, "Expected validation errors for missing StudyInstanceUID")
	assert.Contains(t, err.Error(), "Field: StudyInstanceUID, Tag: required")
}

func validInstance() *Instance {
	return &Instance{
		SOPInstanceUID:    "1.2.840.113619.2.55.3.604688119.971.1392132526.795.1.1",
		SeriesInstanceUID: "1.2.840.113619.2.55.3.604688119.971.1392132526.795.1",
		StudyInstanceUID:  "1.2.840.113619.2.55.3.604688119.971.1392132526.795",
		SOPClassUID:       "1.2.840.10008.5.1.4.1.1.2",
		InstanceNumber:    1,
		Rows:              512,
		Columns:           512,
		FilePath:          "/data/dicom/a/b/c.dcm",
		FileSize:          526336,
	}
}

func TestInstanceValidation(t *testing.T) {
	err := validInstance().Validate()
	assert.Nil(t, err, "Expected no validation errors for valid Instance")

	missingPath := validInstance()
	missingPath.FilePath = ""
	err = missingPath.Validate()
	assert.NotNil(t, err, "Expected validation errors for missing FilePath")
	assert.Contains(t, err.Error(), "Field: FilePath, Tag: required")

	badSOP := validInstance()
	badSOP.SOPInstanceUID = "urn:oid:nope"
	err = badSOP.Validate()
	assert.NotNil(t, err, "Expected validation errors for malformed SOPInstanceUID")
	assert.Contains(t, err.Error(), "Field: SOPInstanceUID, Tag: dicomuid")
}

func validVolume() *Volume {
	return &Volume{
		ID:                "a9f4f4f6-4e4b-4b6e-9c2e-2f1a2b3c4d5e",
		SeriesInstanceUID: "1.2.840.113619.2.55.3.604688119.971.1392132526.795.1",
		StudyInstanceUID:  "1.2.840.113619.2.55.3.604688119.971.1392132526.795",
		Name:              "CT CHEST: Axial 5mm",
		Modality:          "CT",
		Rows:              512,
		Columns:           512,
		SliceCount:        120,
		PixelSpacingRow:   0.7,
		PixelSpacingCol:   0.7,
	}
}

func TestVolumeValidation(t *testing.T) {
	err := validVolume().Validate()
	assert.Nil(t, err, "Expected no validation errors for valid Volume")

	generated := validVolume()
	generated.ID = uuid.New().String()
	assert.Nil(t, generated.Validate(), "Expected generated uuid to validate")

	badID := validVolume()
	badID.ID = "volume-1"
	err = badID.Validate()
	assert.NotNil(t, err, "Expected validation errors for non-uuid ID")
	assert.Contains(t, err.Error(), "Field: ID, Tag: uuid4")

	noSlices := validVolume()
	noSlices.SliceCount = 0
	err = noSlices.Validate()
	assert.NotNil(t, err, "Expected validation errors for empty volume")
	assert.Contains(t, err.Error(), "Field: SliceCount, Tag: required")
}
