package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	dicomparser "github.com/GoogleCloudPlatform/go-dicom-parser/dicom"
)

// FixtureInstance holds the attribute values of a synthetic DICOM instance.
// Empty fields are omitted from the file so tests can exercise
// missing-attribute handling.
type FixtureInstance struct {
	SOPClassUID          string
	SOPInstanceUID       string
	StudyInstanceUID     string
	SeriesInstanceUID    string
	Modality             string
	StudyDate            string
	StudyDescription     string
	SeriesDescription    string
	SeriesNumber         string
	InstanceNumber       string
	PatientName          string
	PatientID            string
	Rows                 uint16
	Columns              uint16
	NumberOfFrames       string
	PixelSpacing         []string
	SpacingBetweenSlices string
	ImagePositionPatient []string
	FrameOfReferenceUID  string
	WithPixelData        bool
}

// NewFixtureInstance returns a CT fixture with the given UIDs and commonly
// needed attributes populated.
func NewFixtureInstance(studyUID, seriesUID, sopUID string) FixtureInstance {
	return FixtureInstance{
		SOPClassUID:       "1.2.840.10008.5.1.4.1.1.2",
		SOPInstanceUID:    sopUID,
		StudyInstanceUID:  studyUID,
		SeriesInstanceUID: seriesUID,
		Modality:          "CT",
		StudyDate:         "20240102",
		StudyDescription:  "CHEST CT",
		SeriesDescription: "AXIAL 2MM",
		SeriesNumber:      "2",
		InstanceNumber:    "1",
		PatientName:       "DOE^JANE",
		PatientID:         "PAT001",
		Rows:              4,
		Columns:           4,
		WithPixelData:     true,
	}
}

// WriteDicomFile writes the fixture instance to path as an explicit VR little
// endian DICOM file, creating parent directories as needed.
func WriteDicomFile(path string, inst FixtureInstance) error {
	data, err := EncodeDicom(inst)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create fixture directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write DICOM fixture: %w", err)
	}
	return nil
}

// EncodeDicom renders the fixture instance as an explicit VR little endian
// DICOM file in memory.
func EncodeDicom(inst FixtureInstance) ([]byte, error) {
	elements := map[dicomparser.DataElementTag]*dicomparser.DataElement{}

	putText := func(tag dicomparser.DataElementTag, vr *dicomparser.VR, values ...string) {
		present := make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				present = append(present, v)
			}
		}
		if len(present) == 0 {
			return
		}
		elements[tag] = &dicomparser.DataElement{Tag: tag, VR: vr, ValueField: present}
	}
	putShort := func(tag dicomparser.DataElementTag, value uint16) {
		if value == 0 {
			return
		}
		elements[tag] = &dicomparser.DataElement{Tag: tag, VR: dicomparser.USVR, ValueField: []uint16{value}}
	}

	putText(dicomparser.TransferSyntaxUIDTag, dicomparser.UIVR, dicomparser.ExplicitVRLittleEndianUID)
	putText(0x00020002, dicomparser.UIVR, inst.SOPClassUID)
	putText(0x00020003, dicomparser.UIVR, inst.SOPInstanceUID)

	putText(0x00080016, dicomparser.UIVR, inst.SOPClassUID)
	putText(0x00080018, dicomparser.UIVR, inst.SOPInstanceUID)
	putText(0x00080020, dicomparser.DAVR, inst.StudyDate)
	putText(0x00080060, dicomparser.CSVR, inst.Modality)
	putText(0x00081030, dicomparser.LOVR, inst.StudyDescription)
	putText(0x0008103E, dicomparser.LOVR, inst.SeriesDescription)
	putText(0x00100010, dicomparser.PNVR, inst.PatientName)
	putText(0x00100020, dicomparser.LOVR, inst.PatientID)
	putText(0x00180088, dicomparser.DSVR, inst.SpacingBetweenSlices)
	putText(0x0020000D, dicomparser.UIVR, inst.StudyInstanceUID)
	putText(0x0020000E, dicomparser.UIVR, inst.SeriesInstanceUID)
	putText(0x00200011, dicomparser.ISVR, inst.SeriesNumber)
	putText(0x00200013, dicomparser.ISVR, inst.InstanceNumber)
	putText(0x00200032, dicomparser.DSVR, inst.ImagePositionPatient...)
	putText(0x00200052, dicomparser.UIVR, inst.FrameOfReferenceUID)
	putText(0x00280008, dicomparser.ISVR, inst.NumberOfFrames)
	putText(0x00280030, dicomparser.DSVR, inst.PixelSpacing...)
	putShort(0x00280010, inst.Rows)
	putShort(0x00280011, inst.Columns)

	if inst.WithPixelData {
		rows, cols := int(inst.Rows), int(inst.Columns)
		if rows == 0 {
			rows = 2
		}
		if cols == 0 {
			cols = 2
		}
		putShort(0x00280100, 16)
		pixelTag := dicomparser.DataElementTag(dicomparser.PixelDataTag)
		elements[pixelTag] = &dicomparser.DataElement{
			Tag:        pixelTag,
			VR:         dicomparser.OWVR,
			ValueField: [][]byte{make([]byte, rows*cols*2)},
		}
	}

	var buf bytes.Buffer
	if err := dicomparser.Construct(&buf, &dicomparser.DataSet{Elements: elements}); err != nil {
		return nil, fmt.Errorf("failed to encode DICOM fixture: %w", err)
	}
	return buf.Bytes(), nil
}
