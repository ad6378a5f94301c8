// Package indexer imports downloaded DICOM files into the local index. Every
// parseable file is copied into the managed store and recorded as an
// instance row; series and study rows are derived from the file headers.
package indexer

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/dicomfile"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"
)

// fileIndexer struct that implements the FileIndexer interface
type fileIndexer struct {
	storage      *config.StorageSettings
	studyRepo    dicom.StudyRepository
	seriesRepo   dicom.SeriesRepository
	instanceRepo dicom.InstanceRepository
	logger       logger.Logger
}

// NewFileIndexer creates and returns a new instance of fileIndexer
func NewFileIndexer(storage *config.StorageSettings, studyRepo dicom.StudyRepository, seriesRepo dicom.SeriesRepository, instanceRepo dicom.InstanceRepository, logger logger.Logger) (dicom.FileIndexer, error) {
	return &fileIndexer{
		storage:      storage,
		studyRepo:    studyRepo,
		seriesRepo:   seriesRepo,
		instanceRepo: instanceRepo,
		logger:       logger,
	}, nil
}

// ImportDirectory walks dir, copies every parseable DICOM file into the
// managed store and upserts the index rows. Files that cannot be read or
// parsed are counted as failed and leave the directory in place so the
// download can be retried.
func (f *fileIndexer) ImportDirectory(ctx context.Context, dir string) (*dicom.ImportResult, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dir, err)
	}

	result := &dicom.ImportResult{}
	touchedSeries := map[string]*dicomfile.Header{}
	touchedStudies := map[string]*dicomfile.Header{}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		header, skipped, err := f.importFile(ctx, path)
		if err != nil {
			result.Failed++
			f.logger.Warn("Failed to import ", path, ": ", err.Error())
			continue
		}
		if skipped {
			result.Skipped++
		} else {
			result.Indexed++
		}
		touchedSeries[header.SeriesInstanceUID] = header
		touchedStudies[header.StudyInstanceUID] = header
	}

	// Series rows first so the study instance counts sum fresh values
	for seriesUID, header := range touchedSeries {
		if err := f.upsertSeries(ctx, seriesUID, header); err != nil {
			return nil, err
		}
	}
	for studyUID, header := range touchedStudies {
		if err := f.upsertStudy(ctx, studyUID, header); err != nil {
			return nil, err
		}
	}

	if result.Failed == 0 {
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("failed to remove imported directory %s: %w", dir, err)
		}
	}

	f.logger.Info("Imported directory ", dir, ": ", result.Indexed, " indexed, ", result.Skipped, " skipped, ", result.Failed, " failed")
	return result, nil
}

// importFile copies one staged file into the managed store and upserts its
// instance row. It reports skipped=true when the SOP instance is already
// indexed.
func (f *fileIndexer) importFile(ctx context.Context, path string) (*dicomfile.Header, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read file: %w", err)
	}

	header, err := dicomfile.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}

	indexed, err := f.instanceRepo.ExistsBySOPInstanceUID(ctx, header.SOPInstanceUID)
	if err != nil {
		return nil, false, err
	}
	if indexed {
		return header, true, nil
	}

	destDir := filepath.Join(f.storage.DicomDir(), header.StudyInstanceUID, header.SeriesInstanceUID)
	if err := os.MkdirAll(destDir, 0700); err != nil {
		return nil, false, fmt.Errorf("failed to create store directory: %w", err)
	}

	destPath := filepath.Join(destDir, header.SOPInstanceUID+".dcm")
	if err := os.WriteFile(destPath, data, 0600); err != nil {
		return nil, false, fmt.Errorf("failed to copy file into store: %w", err)
	}

	instance := &dicom.Instance{
		SOPInstanceUID:    header.SOPInstanceUID,
		SeriesInstanceUID: header.SeriesInstanceUID,
		StudyInstanceUID:  header.StudyInstanceUID,
		SOPClassUID:       header.SOPClassUID,
		InstanceNumber:    header.InstanceNumber,
		Rows:              header.Rows,
		Columns:           header.Columns,
		NumberOfFrames:    header.NumberOfFrames,
		FilePath:          destPath,
		FileSize:          int64(len(data)),
	}
	if err := f.instanceRepo.Upsert(ctx, instance); err != nil {
		return nil, false, err
	}

	return header, false, nil
}

func (f *fileIndexer) upsertSeries(ctx context.Context, seriesUID string, header *dicomfile.Header) error {
	series := &dicom.Series{
		SeriesInstanceUID: seriesUID,
		StudyInstanceUID:  header.StudyInstanceUID,
		Modality:          header.Modality,
		SeriesNumber:      header.SeriesNumber,
		SeriesDescription: header.SeriesDescription,
	}

	// Keep the instance count the remote server reported at download time
	if existing, err := f.seriesRepo.GetByUID(ctx, seriesUID); err == nil {
		series.NumberOfSeriesRelatedInstances = existing.NumberOfSeriesRelatedInstances
	}

	count, err := f.instanceRepo.CountBySeries(ctx, seriesUID)
	if err != nil {
		return err
	}
	series.InstanceCount = int(count)

	return f.seriesRepo.Upsert(ctx, series)
}

func (f *fileIndexer) upsertStudy(ctx context.Context, studyUID string, header *dicomfile.Header) error {
	study := &dicom.Study{
		StudyInstanceUID: studyUID,
		PatientName:      header.PatientName,
		PatientID:        header.PatientID,
		StudyDate:        header.StudyDate,
		StudyDescription: header.StudyDescription,
	}

	modalities := header.Modality
	if existing, err := f.studyRepo.GetByUID(ctx, studyUID); err == nil {
		modalities = mergeModalities(existing.ModalitiesInStudy, header.Modality)
	}
	study.ModalitiesInStudy = modalities

	// The study count is the sum over its series rows
	seriesList, err := f.seriesRepo.List(ctx, &dicom.SeriesQuery{StudyInstanceUID: studyUID})
	if err != nil {
		return err
	}
	for _, series := range seriesList {
		study.InstanceCount += series.InstanceCount
	}

	return f.studyRepo.Upsert(ctx, study)
}

// mergeModalities unions a modality into the ", " separated list kept on the
// study row.
func mergeModalities(existing, modality string) string {
	if modality == "" {
		return existing
	}
	if existing == "" {
		return modality
	}
	for _, m := range strings.Split(existing, ", ") {
		if m == modality {
			return existing
		}
	}
	return existing + ", " + modality
}
