// Package imaging assembles indexed DICOM series into volumes for the scene
// registry. Assembly reads the instance headers again rather than trusting
// the index rows, so geometry always reflects the stored files.
package imaging

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/dicomfile"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"
)

// volumeAssembler struct that implements the VolumeAssembler interface
type volumeAssembler struct {
	logger logger.Logger
}

// NewVolumeAssembler creates and returns a new instance of volumeAssembler
func NewVolumeAssembler(logger logger.Logger) (dicom.VolumeAssembler, error) {
	return &volumeAssembler{
		logger: logger,
	}, nil
}

type slice struct {
	instance *dicom.Instance
	header   *dicomfile.Header
}

// Assemble orders the instances of one series, validates their geometric
// consistency and derives the volume properties. The volume is not
// registered; that is the caller's job.
func (v *volumeAssembler) Assemble(ctx context.Context, series *dicom.Series, instances []*dicom.Instance) (*dicom.Volume, error) {
	if series == nil {
		return nil, fmt.Errorf("series cannot be nil")
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("series %s has no indexed instances to assemble", series.SeriesInstanceUID)
	}

	slices := make([]slice, 0, len(instances))
	for _, instance := range instances {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		header, err := dicomfile.ParseFile(instance.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read instance %s: %w", instance.SOPInstanceUID, err)
		}
		slices = append(slices, slice{instance: instance, header: header})
	}

	// Order by instance number, keeping file order for ties and instances
	// without a number
	sort.SliceStable(slices, func(i, j int) bool {
		return slices[i].header.InstanceNumber < slices[j].header.InstanceNumber
	})

	first := slices[0].header
	if first.Rows == 0 || first.Columns == 0 {
		return nil, fmt.Errorf("series %s does not contain image slices", series.SeriesInstanceUID)
	}

	sliceCount := 0
	for _, s := range slices {
		if s.header.Rows != first.Rows || s.header.Columns != first.Columns {
			return nil, fmt.Errorf("instances of series %s disagree on matrix size (%dx%d vs %dx%d)",
				series.SeriesInstanceUID, first.Rows, first.Columns, s.header.Rows, s.header.Columns)
		}
		frames := s.header.NumberOfFrames
		if frames < 1 {
			frames = 1
		}
		sliceCount += frames
	}

	volume := &dicom.Volume{
		ID:                   uuid.New().String(),
		SeriesInstanceUID:    series.SeriesInstanceUID,
		StudyInstanceUID:     series.StudyInstanceUID,
		Name:                 volumeName(series, first),
		Modality:             modality(series, first),
		Rows:                 first.Rows,
		Columns:              first.Columns,
		SliceCount:           sliceCount,
		FrameOfReferenceUID:  frameOfReference(slices),
		SpacingBetweenSlices: sliceSpacing(slices),
		LoadedAt:             time.Now().UTC(),
	}
	if len(first.PixelSpacing) >= 2 {
		volume.PixelSpacingRow = first.PixelSpacing[0]
		volume.PixelSpacingCol = first.PixelSpacing[1]
	} else if len(first.PixelSpacing) == 1 {
		volume.PixelSpacingRow = first.PixelSpacing[0]
		volume.PixelSpacingCol = first.PixelSpacing[0]
	}

	v.logger.Info("Assembled volume ", volume.Name, " with ", volume.SliceCount, " slices from series ", series.SeriesInstanceUID)
	return volume, nil
}

// volumeName picks the display name the way the host application names
// loaded nodes: series description, then study description, then the series
// number, then the bare UID.
func volumeName(series *dicom.Series, header *dicomfile.Header) string {
	if name := strings.TrimSpace(series.SeriesDescription); name != "" {
		return name
	}
	if name := strings.TrimSpace(header.SeriesDescription); name != "" {
		return name
	}
	if name := strings.TrimSpace(header.StudyDescription); name != "" {
		return name
	}
	if series.SeriesNumber != "" {
		return "Series " + series.SeriesNumber
	}
	return series.SeriesInstanceUID
}

func modality(series *dicom.Series, header *dicomfile.Header) string {
	if header.Modality != "" {
		return header.Modality
	}
	return series.Modality
}

func frameOfReference(slices []slice) string {
	for _, s := range slices {
		if s.header.FrameOfReferenceUID != "" {
			return s.header.FrameOfReferenceUID
		}
	}
	return ""
}

// sliceSpacing prefers the explicit SpacingBetweenSlices attribute and falls
// back to the mean distance between consecutive slice positions.
func sliceSpacing(slices []slice) float64 {
	for _, s := range slices {
		if s.header.SpacingBetweenSlices > 0 {
			return s.header.SpacingBetweenSlices
		}
	}

	positions := make([][]float64, 0, len(slices))
	for _, s := range slices {
		if len(s.header.ImagePositionPatient) == 3 {
			positions = append(positions, s.header.ImagePositionPatient)
		}
	}
	if len(positions) < 2 {
		return 0
	}

	total := 0.0
	for i := 1; i < len(positions); i++ {
		dx := positions[i][0] - positions[i-1][0]
		dy := positions[i][1] - positions[i-1][1]
		dz := positions[i][2] - positions[i-1][2]
		total += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return total / float64(len(positions)-1)
}
