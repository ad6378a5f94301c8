//go:build integration
// +build integration

package persistence

import (
	"context"
	"testing"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/persistence/models"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeSqliteRepository_Create(t *testing.T) {
	ctx := SetupTestDB(t, config.SqliteDbType)

	volume := CreateTestVolume(t, "")

	err := ctx.VolumeRepo.Create(context.Background(), volume)
	require.NoError(t, err)

	// Verify using GORM model (infrastructure concern)
	var createdVolumeModel models.VolumeModel
	err = ctx.DB.First(&createdVolumeModel, "id = ?", volume.ID).Error
	require.NoError(t, err)
	assert.Equal(t, volume.Name, createdVolumeModel.Name)
	assert.Equal(t, volume.SliceCount, createdVolumeModel.SliceCount)
}

func TestVolumeRepository_Create_InvalidVolume(t *testing.T) {
	ctx := SetupTestDB(t, config.SqliteDbType)

	volume := &dicom.Volume{} // Invalid - missing required fields

	err := ctx.VolumeRepo.Create(context.Background(), volume)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestVolumeRepository_GetByID_NotFound(t *testing.T) {
	ctx := SetupTestDB(t, config.SqliteDbType)

	_, err := ctx.VolumeRepo.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestVolumeRepository_List_BySeries(t *testing.T) {
	ctx := SetupTestDB(t, config.SqliteDbType)

	first := CreateTestVolume(t, TestSeriesUID+".1")
	second := CreateTestVolume(t, TestSeriesUID+".2")
	require.NoError(t, ctx.VolumeRepo.Create(context.Background(), first))
	require.NoError(t, ctx.VolumeRepo.Create(context.Background(), second))

	query := &dicom.VolumeQuery{SeriesInstanceUID: TestSeriesUID + ".2"}
	list, err := ctx.VolumeRepo.List(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	list, err = ctx.VolumeRepo.List(context.Background(), &dicom.VolumeQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestVolumeSqliteRepository_DeleteByID(t *testing.T) {
	ctx := SetupTestDB(t, config.SqliteDbType)

	volume := CreateTestVolume(t, "")
	require.NoError(t, ctx.VolumeRepo.Create(context.Background(), volume))
	require.NoError(t, ctx.VolumeRepo.DeleteByID(context.Background(), volume.ID))

	_, err := ctx.VolumeRepo.GetByID(context.Background(), volume.ID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestVolumeRepository_DeleteBySeries(t *testing.T) {
	ctx := SetupTestDB(t, config.SqliteDbType)

	kept := CreateTestVolume(t, TestSeriesUID+".1")
	dropped := CreateTestVolume(t, TestSeriesUID+".2")
	require.NoError(t, ctx.VolumeRepo.Create(context.Background(), kept))
	require.NoError(t, ctx.VolumeRepo.Create(context.Background(), dropped))

	require.NoError(t, ctx.VolumeRepo.DeleteBySeries(context.Background(), TestSeriesUID+".2"))

	list, err := ctx.VolumeRepo.List(context.Background(), &dicom.VolumeQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)
}
