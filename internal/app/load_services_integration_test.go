//go:build integration
// +build integration

package app

import (
	"context"
	"testing"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/retrieval"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/testutil"

	"github.com/stretchr/testify/require"
)

func TestLoadService_LoadSeries_Success(t *testing.T) {
	services := SetupTestServices(t, config.SqliteDbType)
	fake := testutil.StartFakeDicomwebServer(t, chestStudyFixtures(testChestStudyUID)...)
	ctx := context.Background()
	axialUID := testChestStudyUID + ".1"

	retrieveChestStudy(t, services, fake.URL(), retrieval.ModeIndex, axialUID)

	volume, err := services.Load.LoadSeries(ctx, axialUID)
	require.NoError(t, err)
	require.NotEmpty(t, volume.ID)
	require.Equal(t, axialUID, volume.SeriesInstanceUID)
	require.Equal(t, testChestStudyUID, volume.StudyInstanceUID)
	require.Equal(t, "AXIAL 2MM", volume.Name)
	require.Equal(t, "CT", volume.Modality)
	require.Equal(t, 4, volume.Rows)
	require.Equal(t, 4, volume.Columns)
	require.Equal(t, 2, volume.SliceCount)
	require.InDelta(t, 2.0, volume.SpacingBetweenSlices, 1e-6)
	require.False(t, volume.LoadedAt.IsZero())

	// The volume is registered in the scene registry
	registered, err := services.LocalIndex.GetVolume(ctx, volume.ID)
	require.NoError(t, err)
	require.Equal(t, volume.SeriesInstanceUID, registered.SeriesInstanceUID)
}

func TestLoadService_LoadSeries_TwiceRegistersTwoVolumes(t *testing.T) {
	services := SetupTestServices(t, config.SqliteDbType)
	fake := testutil.StartFakeDicomwebServer(t, chestStudyFixtures(testChestStudyUID)...)
	ctx := context.Background()
	axialUID := testChestStudyUID + ".1"

	retrieveChestStudy(t, services, fake.URL(), retrieval.ModeIndex, axialUID)

	first, err := services.Load.LoadSeries(ctx, axialUID)
	require.NoError(t, err)
	second, err := services.Load.LoadSeries(ctx, axialUID)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	volumes, err := services.LocalIndex.ListVolumes(ctx, volumeQueryForSeries(axialUID))
	require.NoError(t, err)
	require.Len(t, volumes, 2)
}

func TestLoadService_LoadSeries_Fail_NotIndexed(t *testing.T) {
	services := SetupTestServices(t, config.SqliteDbType)

	_, err := services.Load.LoadSeries(context.Background(), "1.2.3.4.5")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}
