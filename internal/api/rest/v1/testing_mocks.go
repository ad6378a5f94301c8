//go:build unit
// +build unit

package v1

import (
	"context"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/retrieval"

	"github.com/stretchr/testify/mock"
)

// MockBrowseService is a mock implementation of dicom.BrowseService
type MockBrowseService struct {
	mock.Mock
}

func (m *MockBrowseService) Studies(ctx context.Context, request *dicom.BrowseStudiesRequest) (*dicom.BrowseStudiesResult, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dicom.BrowseStudiesResult), args.Error(1)
}

func (m *MockBrowseService) Series(ctx context.Context, request *dicom.BrowseSeriesRequest) (*dicom.BrowseSeriesResult, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dicom.BrowseSeriesResult), args.Error(1)
}

func (m *MockBrowseService) DeleteRemoteSeries(ctx context.Context, serverURL, studyUID, seriesUID string) error {
	args := m.Called(ctx, serverURL, studyUID, seriesUID)
	return args.Error(0)
}

func (m *MockBrowseService) ClearCache() error {
	args := m.Called()
	return args.Error(0)
}

// MockRetrievalService is a mock implementation of retrieval.Service
type MockRetrievalService struct {
	mock.Mock
}

func (m *MockRetrievalService) Start(ctx context.Context, request *retrieval.Request) (*retrieval.Job, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Job), args.Error(1)
}

func (m *MockRetrievalService) Status(jobID string) (*retrieval.Job, error) {
	args := m.Called(jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Job), args.Error(1)
}

func (m *MockRetrievalService) Wait(ctx context.Context, jobID string) (*retrieval.Job, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Job), args.Error(1)
}

func (m *MockRetrievalService) Cancel(jobID string) error {
	args := m.Called(jobID)
	return args.Error(0)
}

func (m *MockRetrievalService) List() []*retrieval.Job {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*retrieval.Job)
}

// MockLocalIndexService is a mock implementation of dicom.LocalIndexService
type MockLocalIndexService struct {
	mock.Mock
}

func (m *MockLocalIndexService) ListStudies(ctx context.Context, query *dicom.StudyQuery) ([]*dicom.Study, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dicom.Study), args.Error(1)
}

func (m *MockLocalIndexService) ListSeries(ctx context.Context, query *dicom.SeriesQuery) ([]*dicom.Series, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dicom.Series), args.Error(1)
}

func (m *MockLocalIndexService) ListInstances(ctx context.Context, query *dicom.InstanceQuery) ([]*dicom.Instance, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dicom.Instance), args.Error(1)
}

func (m *MockLocalIndexService) InstanceFile(ctx context.Context, sopInstanceUID string) (*dicom.Instance, []byte, error) {
	args := m.Called(ctx, sopInstanceUID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*dicom.Instance), args.Get(1).([]byte), args.Error(2)
}

func (m *MockLocalIndexService) DeleteSeries(ctx context.Context, seriesInstanceUID string) error {
	args := m.Called(ctx, seriesInstanceUID)
	return args.Error(0)
}

func (m *MockLocalIndexService) ListVolumes(ctx context.Context, query *dicom.VolumeQuery) ([]*dicom.Volume, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dicom.Volume), args.Error(1)
}

func (m *MockLocalIndexService) GetVolume(ctx context.Context, volumeID string) (*dicom.Volume, error) {
	args := m.Called(ctx, volumeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dicom.Volume), args.Error(1)
}

func (m *MockLocalIndexService) DeleteVolume(ctx context.Context, volumeID string) error {
	args := m.Called(ctx, volumeID)
	return args.Error(0)
}
