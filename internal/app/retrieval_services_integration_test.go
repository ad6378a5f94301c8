//go:build integration
// +build integration

package app

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/retrieval"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/testutil"

	"github.com/stretchr/testify/require"
)

// retrieveChestStudy starts a job for the given series of the chest study and
// waits for it to finish.
func retrieveChestStudy(t *testing.T, services *TestServices, serverURL string, mode retrieval.Mode, seriesUIDs ...string) *retrieval.Job {
	t.Helper()

	items := make([]retrieval.Item, 0, len(seriesUIDs))
	for _, seriesUID := range seriesUIDs {
		items = append(items, retrieval.Item{StudyInstanceUID: testChestStudyUID, SeriesInstanceUID: seriesUID})
	}

	ctx := context.Background()
	job, err := services.Retrieval.Start(ctx, &retrieval.Request{ServerURL: serverURL, Mode: mode, Items: items})
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	finished, err := services.Retrieval.Wait(ctx, job.ID)
	require.NoError(t, err)
	return finished
}

func stagedFileCount(t *testing.T, stagingDir string) int {
	t.Helper()

	count := 0
	_ = filepath.WalkDir(stagingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		count++
		return nil
	})
	return count
}

func TestRetrievalService_Start_IndexMode_Success(t *testing.T) {
	services := SetupTestServices(t, config.SqliteDbType)
	fake := testutil.StartFakeDicomwebServer(t, chestStudyFixtures(testChestStudyUID)...)
	ctx := context.Background()
	axialUID := testChestStudyUID + ".1"
	scoutUID := testChestStudyUID + ".2"

	finished := retrieveChestStudy(t, services, fake.URL(), retrieval.ModeIndex, axialUID, scoutUID)
	require.Equal(t, retrieval.StatusCompleted, finished.Status)
	require.False(t, finished.FinishedAt.IsZero())

	done, total, bytes := finished.Totals()
	require.Equal(t, 3, done)
	require.Equal(t, 3, total)
	require.Greater(t, bytes, int64(0))

	// Instance rows reference files in the managed store
	instances, err := services.DBContext.InstanceRepo.List(ctx, instanceQueryForSeries(axialUID))
	require.NoError(t, err)
	require.Len(t, instances, 2)
	for _, instance := range instances {
		require.FileExists(t, instance.FilePath)
		require.Contains(t, instance.FilePath, services.Storage.DicomDir())
	}

	// Study counters cover both series
	study, err := services.DBContext.StudyRepo.GetByUID(ctx, testChestStudyUID)
	require.NoError(t, err)
	require.Equal(t, 3, study.InstanceCount)

	seriesCount, err := services.DBContext.SeriesRepo.CountByStudy(ctx, testChestStudyUID)
	require.NoError(t, err)
	require.Equal(t, int64(2), seriesCount)

	// Staging was cleaned up after indexing
	require.Zero(t, stagedFileCount(t, services.Storage.StagingDir()))
}

func TestRetrievalService_Start_SkipsIndexedInstances(t *testing.T) {
	services := SetupTestServices(t, config.SqliteDbType)
	fake := testutil.StartFakeDicomwebServer(t, chestStudyFixtures(testChestStudyUID)...)
	ctx := context.Background()
	axialUID := testChestStudyUID + ".1"

	first := retrieveChestStudy(t, services, fake.URL(), retrieval.ModeIndex, axialUID)
	require.Equal(t, retrieval.StatusCompleted, first.Status)
	require.Equal(t, 2, first.Items[0].InstancesDone)

	second := retrieveChestStudy(t, services, fake.URL(), retrieval.ModeIndex, axialUID)
	require.Equal(t, retrieval.StatusCompleted, second.Status)
	require.Equal(t, 0, second.Items[0].InstancesDone)
	require.Equal(t, 2, second.Items[0].InstancesSkipped)

	count, err := services.DBContext.InstanceRepo.CountBySeries(ctx, axialUID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestRetrievalService_Start_LoadMode_RegistersVolume(t *testing.T) {
	services := SetupTestServices(t, config.SqliteDbType)
	fake := testutil.StartFakeDicomwebServer(t, chestStudyFixtures(testChestStudyUID)...)
	ctx := context.Background()
	axialUID := testChestStudyUID + ".1"

	finished := retrieveChestStudy(t, services, fake.URL(), retrieval.ModeLoad, axialUID)
	require.Equal(t, retrieval.StatusCompleted, finished.Status)

	volumeIDs := finished.LoadedVolumeIDs()
	require.Len(t, volumeIDs, 1)

	volume, err := services.LocalIndex.GetVolume(ctx, volumeIDs[0])
	require.NoError(t, err)
	require.Equal(t, axialUID, volume.SeriesInstanceUID)
	require.Equal(t, "AXIAL 2MM", volume.Name)
	require.Equal(t, 2, volume.SliceCount)
	require.InDelta(t, 2.0, volume.SpacingBetweenSlices, 1e-6)
}

func TestRetrievalService_Job_Fail_MissingInstanceFile(t *testing.T) {
	services := SetupTestServices(t, config.SqliteDbType)
	fake := testutil.StartFakeDicomwebServer(t, chestStudyFixtures(testChestStudyUID)...)
	axialUID := testChestStudyUID + ".1"

	// The archive lists the instance but cannot serve its file
	fake.RemoveFile(axialUID + ".1")

	finished := retrieveChestStudy(t, services, fake.URL(), retrieval.ModeIndex, axialUID)
	require.Equal(t, retrieval.StatusFailed, finished.Status)
	require.Equal(t, retrieval.StatusFailed, finished.Items[0].Status)
	require.Contains(t, finished.Items[0].Error, "failed to retrieve instance")
}

func TestRetrievalService_Job_PartiallyCompleted(t *testing.T) {
	services := SetupTestServices(t, config.SqliteDbType)
	fake := testutil.StartFakeDicomwebServer(t, chestStudyFixtures(testChestStudyUID)...)
	ctx := context.Background()
	axialUID := testChestStudyUID + ".1"
	scoutUID := testChestStudyUID + ".2"

	fake.RemoveFile(scoutUID + ".1")

	finished := retrieveChestStudy(t, services, fake.URL(), retrieval.ModeIndex, axialUID, scoutUID)
	require.Equal(t, retrieval.StatusPartiallyCompleted, finished.Status)

	statusBySeries := map[string]retrieval.Status{}
	for _, item := range finished.Items {
		statusBySeries[item.SeriesInstanceUID] = item.Status
	}
	require.Equal(t, retrieval.StatusCompleted, statusBySeries[axialUID])
	require.Equal(t, retrieval.StatusFailed, statusBySeries[scoutUID])

	// The successful series was indexed regardless of the failure
	count, err := services.DBContext.InstanceRepo.CountBySeries(ctx, axialUID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestRetrievalService_Cancel_Success(t *testing.T) {
	services := SetupTestServices(t, config.SqliteDbType)
	fake := testutil.StartFakeDicomwebServer(t, chestStudyFixtures(testChestStudyUID)...)
	fake.SetRetrieveDelay(300 * time.Millisecond)
	ctx := context.Background()

	job, err := services.Retrieval.Start(ctx, &retrieval.Request{
		ServerURL: fake.URL(),
		Mode:      retrieval.ModeIndex,
		Items: []retrieval.Item{
			{StudyInstanceUID: testChestStudyUID, SeriesInstanceUID: testChestStudyUID + ".1"},
			{StudyInstanceUID: testChestStudyUID, SeriesInstanceUID: testChestStudyUID + ".2"},
		},
	})
	require.NoError(t, err)

	err = services.Retrieval.Cancel(job.ID)
	require.NoError(t, err)

	finished, err := services.Retrieval.Wait(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, retrieval.StatusCanceled, finished.Status)
}

func TestRetrievalService_Start_Fail_NoItems(t *testing.T) {
	services := SetupTestServices(t, config.SqliteDbType)

	_, err := services.Retrieval.Start(context.Background(), &retrieval.Request{
		ServerURL: "http://localhost:8080",
		Mode:      retrieval.ModeIndex,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "validation")
}

func TestRetrievalService_Status_Fail_UnknownJob(t *testing.T) {
	services := SetupTestServices(t, config.SqliteDbType)

	_, err := services.Retrieval.Status("0a61f318-8f35-4a8c-b545-7a62a11f5f9a")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestRetrievalService_List_MostRecentFirst(t *testing.T) {
	services := SetupTestServices(t, config.SqliteDbType)
	fake := testutil.StartFakeDicomwebServer(t, chestStudyFixtures(testChestStudyUID)...)

	first := retrieveChestStudy(t, services, fake.URL(), retrieval.ModeIndex, testChestStudyUID+".1")
	second := retrieveChestStudy(t, services, fake.URL(), retrieval.ModeIndex, testChestStudyUID+".2")

	jobs := services.Retrieval.List()
	require.Len(t, jobs, 2)
	require.Equal(t, second.ID, jobs[0].ID)
	require.Equal(t, first.ID, jobs[1].ID)
	require.True(t, jobs[0].Status.Terminal())
}

func instanceQueryForSeries(seriesUID string) *dicom.InstanceQuery {
	query := dicom.NewInstanceQuery()
	query.SeriesInstanceUID = seriesUID
	return query
}
