//go:build unit
// +build unit

package imaging

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testStudyUID  = "1.2.840.113619.2.55.3"
	testSeriesUID = "1.2.840.113619.2.55.3.1"
)

func testSeries() *dicom.Series {
	return &dicom.Series{
		SeriesInstanceUID: testSeriesUID,
		StudyInstanceUID:  testStudyUID,
		Modality:          "CT",
		SeriesNumber:      "2",
		SeriesDescription: "AXIAL 2MM",
	}
}

// writeSlice stores one fixture file and returns the matching index row.
func writeSlice(t *testing.T, dir string, inst testutil.FixtureInstance, instanceNumber int) *dicom.Instance {
	t.Helper()

	path := filepath.Join(dir, inst.SOPInstanceUID+".dcm")
	require.NoError(t, testutil.WriteDicomFile(path, inst))

	return &dicom.Instance{
		SOPInstanceUID:    inst.SOPInstanceUID,
		SeriesInstanceUID: inst.SeriesInstanceUID,
		StudyInstanceUID:  inst.StudyInstanceUID,
		InstanceNumber:    instanceNumber,
		FilePath:          path,
	}
}

func newTestAssembler(t *testing.T) dicom.VolumeAssembler {
	t.Helper()
	assembler, err := NewVolumeAssembler(testutil.SetupTestLogger(t))
	require.NoError(t, err)
	return assembler
}

func TestAssembleOrdersSlicesAndDerivesGeometry(t *testing.T) {
	dir := t.TempDir()
	assembler := newTestAssembler(t)

	// Staged out of order with positions 2mm apart along z
	var instances []*dicom.Instance
	for _, n := range []int{3, 1, 2} {
		inst := testutil.NewFixtureInstance(testStudyUID, testSeriesUID, fmt.Sprintf("%s.%d", testSeriesUID, n))
		inst.InstanceNumber = fmt.Sprintf("%d", n)
		inst.PixelSpacing = []string{"0.703125", "0.703125"}
		inst.ImagePositionPatient = []string{"-170.5", "-170.5", fmt.Sprintf("%d", 40+2*n)}
		inst.FrameOfReferenceUID = testStudyUID + ".9"
		instances = append(instances, writeSlice(t, dir, inst, n))
	}

	volume, err := assembler.Assemble(context.Background(), testSeries(), instances)
	require.NoError(t, err)

	assert.NotEmpty(t, volume.ID)
	assert.Equal(t, testSeriesUID, volume.SeriesInstanceUID)
	assert.Equal(t, testStudyUID, volume.StudyInstanceUID)
	assert.Equal(t, "AXIAL 2MM", volume.Name)
	assert.Equal(t, "CT", volume.Modality)
	assert.Equal(t, 4, volume.Rows)
	assert.Equal(t, 4, volume.Columns)
	assert.Equal(t, 3, volume.SliceCount)
	assert.InDelta(t, 0.703125, volume.PixelSpacingRow, 1e-9)
	assert.InDelta(t, 0.703125, volume.PixelSpacingCol, 1e-9)
	assert.InDelta(t, 2.0, volume.SpacingBetweenSlices, 1e-9)
	assert.Equal(t, testStudyUID+".9", volume.FrameOfReferenceUID)
	assert.False(t, volume.LoadedAt.IsZero())

	require.NoError(t, volume.Validate())
}

func TestAssemblePrefersExplicitSliceSpacing(t *testing.T) {
	dir := t.TempDir()
	assembler := newTestAssembler(t)

	inst := testutil.NewFixtureInstance(testStudyUID, testSeriesUID, testSeriesUID+".1")
	inst.SpacingBetweenSlices = "2.5"
	inst.ImagePositionPatient = []string{"0", "0", "10"}
	instances := []*dicom.Instance{writeSlice(t, dir, inst, 1)}

	volume, err := assembler.Assemble(context.Background(), testSeries(), instances)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, volume.SpacingBetweenSlices, 1e-9)
}

func TestAssembleCountsMultiFrameInstances(t *testing.T) {
	dir := t.TempDir()
	assembler := newTestAssembler(t)

	inst := testutil.NewFixtureInstance(testStudyUID, testSeriesUID, testSeriesUID+".1")
	inst.NumberOfFrames = "30"
	instances := []*dicom.Instance{writeSlice(t, dir, inst, 1)}

	volume, err := assembler.Assemble(context.Background(), testSeries(), instances)
	require.NoError(t, err)
	assert.Equal(t, 30, volume.SliceCount)
}

func TestAssembleMatrixSizeMismatchFails(t *testing.T) {
	dir := t.TempDir()
	assembler := newTestAssembler(t)

	first := testutil.NewFixtureInstance(testStudyUID, testSeriesUID, testSeriesUID+".1")
	second := testutil.NewFixtureInstance(testStudyUID, testSeriesUID, testSeriesUID+".2")
	second.InstanceNumber = "2"
	second.Rows = 8
	second.Columns = 8

	instances := []*dicom.Instance{
		writeSlice(t, dir, first, 1),
		writeSlice(t, dir, second, 2),
	}

	_, err := assembler.Assemble(context.Background(), testSeries(), instances)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disagree on matrix size")
}

func TestAssembleNonImageSeriesFails(t *testing.T) {
	dir := t.TempDir()
	assembler := newTestAssembler(t)

	inst := testutil.FixtureInstance{
		SOPClassUID:       "1.2.840.10008.5.1.4.1.1.88.11",
		SOPInstanceUID:    testSeriesUID + ".1",
		StudyInstanceUID:  testStudyUID,
		SeriesInstanceUID: testSeriesUID,
		Modality:          "SR",
	}
	instances := []*dicom.Instance{writeSlice(t, dir, inst, 1)}

	_, err := assembler.Assemble(context.Background(), testSeries(), instances)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain image slices")
}

func TestAssembleNameFallsBackToSeriesNumber(t *testing.T) {
	dir := t.TempDir()
	assembler := newTestAssembler(t)

	inst := testutil.NewFixtureInstance(testStudyUID, testSeriesUID, testSeriesUID+".1")
	inst.StudyDescription = ""
	inst.SeriesDescription = ""
	instances := []*dicom.Instance{writeSlice(t, dir, inst, 1)}

	series := testSeries()
	series.SeriesDescription = ""
	series.SeriesNumber = "5"

	volume, err := assembler.Assemble(context.Background(), series, instances)
	require.NoError(t, err)
	assert.Equal(t, "Series 5", volume.Name)
}

func TestAssembleWithoutInstancesFails(t *testing.T) {
	assembler := newTestAssembler(t)

	_, err := assembler.Assemble(context.Background(), testSeries(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no indexed instances")
}

func TestAssembleMissingFileFails(t *testing.T) {
	assembler := newTestAssembler(t)

	instances := []*dicom.Instance{{
		SOPInstanceUID:    testSeriesUID + ".1",
		SeriesInstanceUID: testSeriesUID,
		StudyInstanceUID:  testStudyUID,
		FilePath:          filepath.Join(t.TempDir(), "absent.dcm"),
	}}

	_, err := assembler.Assemble(context.Background(), testSeries(), instances)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read instance")
}
