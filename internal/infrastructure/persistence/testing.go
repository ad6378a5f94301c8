//go:build integration
// +build integration

package persistence

import (
	"strings"
	"testing"
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Test UIDs shared by the repository integration tests
const (
	TestStudyUID    = "1.2.840.113619.2.55.3"
	TestSeriesUID   = "1.2.840.113619.2.55.3.1"
	TestInstanceUID = "1.2.840.113619.2.55.3.1.1"
	TestSOPClassUID = "1.2.840.10008.5.1.4.1.1.2"
)

// TestContext holds test database and repositories
type TestContext struct {
	DB           *gorm.DB
	StudyRepo    dicom.StudyRepository
	SeriesRepo   dicom.SeriesRepository
	InstanceRepo dicom.InstanceRepository
	VolumeRepo   dicom.VolumeRepository
}

// SetupTestDB initializes a test database with automatic cleanup
func SetupTestDB(t *testing.T, dbType string) *TestContext {
	t.Helper()

	var settings config.DatabaseSettings
	var cleanupFunc func()

	switch dbType {
	case config.SqliteDbType:
		settings = config.DatabaseSettings{
			Type: config.SqliteDbType,
			DSN:  ":memory:",
		}
		cleanupFunc = func() {
			// SQLite in-memory cleanup is automatic
		}

	case config.PostgresDbType:
		uniqueDBName := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
		settings = config.DatabaseSettings{
			Type: config.PostgresDbType,
			DSN:  "user=postgres password=postgres host=localhost port=5432 sslmode=disable",
			Name: uniqueDBName,
		}
		cleanupFunc = func() {
			adminDSN := "user=postgres password=postgres host=localhost port=5432 dbname=postgres sslmode=disable"
			_ = DropDatabase(adminDSN, uniqueDBName)
		}

	default:
		t.Fatalf("Unsupported database type: %s", dbType)
	}

	// Create connection
	db, err := NewDBConnection(settings)
	require.NoError(t, err, "Failed to create database connection")

	// Register cleanup
	t.Cleanup(func() {
		_ = CloseDB(db)
		cleanupFunc()
	})

	// Migrate schema
	err = AutoMigrate(db)
	require.NoError(t, err, "Failed to migrate schema")

	// Create repositories
	logger := testutil.SetupTestLogger(t)

	studyRepo, err := NewGormStudyRepository(db, logger)
	require.NoError(t, err, "Failed to create study repository")

	seriesRepo, err := NewGormSeriesRepository(db, logger)
	require.NoError(t, err, "Failed to create series repository")

	instanceRepo, err := NewGormInstanceRepository(db, logger)
	require.NoError(t, err, "Failed to create instance repository")

	volumeRepo, err := NewGormVolumeRepository(db, logger)
	require.NoError(t, err, "Failed to create volume repository")

	return &TestContext{
		DB:           db,
		StudyRepo:    studyRepo,
		SeriesRepo:   seriesRepo,
		InstanceRepo: instanceRepo,
		VolumeRepo:   volumeRepo,
	}
}

// CreateTestStudy creates a study entity with default values
func CreateTestStudy(t *testing.T, studyUID string) *dicom.Study {
	t.Helper()

	if studyUID == "" {
		studyUID = TestStudyUID
	}

	return &dicom.Study{
		StudyInstanceUID:  studyUID,
		PatientName:       "Doe^Jane",
		PatientID:         "PAT001",
		ModalitiesInStudy: "CT",
		StudyDate:         "20240102",
		StudyDescription:  "CHEST CT",
	}
}

// CreateTestSeries creates a series entity with default values
func CreateTestSeries(t *testing.T, studyUID, seriesUID string) *dicom.Series {
	t.Helper()

	if studyUID == "" {
		studyUID = TestStudyUID
	}
	if seriesUID == "" {
		seriesUID = TestSeriesUID
	}

	return &dicom.Series{
		SeriesInstanceUID:              seriesUID,
		StudyInstanceUID:               studyUID,
		Modality:                       "CT",
		SeriesNumber:                   "2",
		SeriesDescription:              "AXIAL 2MM",
		NumberOfSeriesRelatedInstances: 3,
	}
}

// CreateTestInstance creates an instance entity with default values
func CreateTestInstance(t *testing.T, seriesUID, sopUID, filePath string) *dicom.Instance {
	t.Helper()

	if seriesUID == "" {
		seriesUID = TestSeriesUID
	}
	if sopUID == "" {
		sopUID = TestInstanceUID
	}
	if filePath == "" {
		filePath = "/tmp/" + sopUID + ".dcm"
	}

	return &dicom.Instance{
		SOPInstanceUID:    sopUID,
		SeriesInstanceUID: seriesUID,
		StudyInstanceUID:  TestStudyUID,
		SOPClassUID:       TestSOPClassUID,
		InstanceNumber:    1,
		Rows:              512,
		Columns:           512,
		NumberOfFrames:    1,
		FilePath:          filePath,
		FileSize:          1024,
	}
}

// CreateTestVolume creates a volume entity with default values
func CreateTestVolume(t *testing.T, seriesUID string) *dicom.Volume {
	t.Helper()

	if seriesUID == "" {
		seriesUID = TestSeriesUID
	}

	return &dicom.Volume{
		ID:                   uuid.NewString(),
		SeriesInstanceUID:    seriesUID,
		StudyInstanceUID:     TestStudyUID,
		Name:                 "CHEST CT: AXIAL 2MM",
		Modality:             "CT",
		Rows:                 512,
		Columns:              512,
		SliceCount:           3,
		PixelSpacingRow:      0.703125,
		PixelSpacingCol:      0.703125,
		SpacingBetweenSlices: 2.0,
		FrameOfReferenceUID:  TestStudyUID + ".9",
		LoadedAt:             time.Now(),
	}
}
