//go:build integration
// +build integration

package app

import (
	"testing"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/retrieval"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/cache"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/connector"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/imaging"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/indexer"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/persistence"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/testutil"

	"github.com/stretchr/testify/require"
)

// TestServices holds all application services and dependencies for testing
type TestServices struct {
	Browse     dicom.BrowseService
	Retrieval  retrieval.Service
	LocalIndex dicom.LocalIndexService
	Load       dicom.LoadService

	// Infrastructure
	Storage   *config.StorageSettings
	DBContext *persistence.TestContext
}

// SetupTestServices initializes all application services for integration
// tests. Storage lives in a per-test temporary directory; the small page size
// forces the connector to page through QIDO-RS results.
func SetupTestServices(t *testing.T, dbType string) *TestServices {
	t.Helper()

	logger := testutil.SetupTestLogger(t)

	// Setup database
	dbContext := persistence.SetupTestDB(t, dbType)

	// Setup storage and remote settings
	storage := &config.StorageSettings{Root: t.TempDir()}
	remote := &config.RemoteSettings{
		PageSize:            2,
		RetryAttempts:       1,
		RetryDelaySeconds:   1,
		RequestsPerSecond:   1000,
		RequestBurst:        1000,
		DownloadParallelism: 2,
	}

	// Setup DICOMweb connector and response cache
	webConnector, err := connector.NewDicomwebConnector(remote, logger)
	require.NoError(t, err, "Failed to create DICOMweb connector")

	responseCache, err := cache.NewFileCache(storage.CacheDir(), logger)
	require.NoError(t, err, "Failed to create response cache")

	// Setup indexing and volume assembly
	fileIndexer, err := indexer.NewFileIndexer(storage, dbContext.StudyRepo, dbContext.SeriesRepo, dbContext.InstanceRepo, logger)
	require.NoError(t, err, "Failed to create file indexer")

	assembler, err := imaging.NewVolumeAssembler(logger)
	require.NoError(t, err, "Failed to create volume assembler")

	// Initialize application services
	browseService, err := NewBrowseService(webConnector, responseCache, dbContext.InstanceRepo, logger)
	require.NoError(t, err, "Failed to create BrowseService")

	loadService, err := NewLoadService(
		dbContext.SeriesRepo,
		dbContext.InstanceRepo,
		assembler,
		dbContext.VolumeRepo,
		logger,
	)
	require.NoError(t, err, "Failed to create LoadService")

	localIndexService, err := NewLocalIndexService(
		dbContext.StudyRepo,
		dbContext.SeriesRepo,
		dbContext.InstanceRepo,
		dbContext.VolumeRepo,
		storage,
		logger,
	)
	require.NoError(t, err, "Failed to create LocalIndexService")

	retrievalService, err := NewRetrievalService(
		webConnector,
		fileIndexer,
		loadService,
		dbContext.InstanceRepo,
		storage,
		remote,
		logger,
	)
	require.NoError(t, err, "Failed to create RetrievalService")

	return &TestServices{
		Browse:     browseService,
		Retrieval:  retrievalService,
		LocalIndex: localIndexService,
		Load:       loadService,
		Storage:    storage,
		DBContext:  dbContext,
	}
}
