package app

import (
	"context"
	"fmt"
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"
)

// browseService implements the BrowseService interface for browsing remote
// DICOMweb servers through the response cache
type browseService struct {
	connector    dicom.WebConnector
	cache        dicom.ResponseCache
	instanceRepo dicom.InstanceRepository
	logger       logger.Logger
}

// NewBrowseService creates a new instance of browseService
func NewBrowseService(connector dicom.WebConnector, cache dicom.ResponseCache, instanceRepo dicom.InstanceRepository, logger logger.Logger) (dicom.BrowseService, error) {
	return &browseService{
		connector:    connector,
		cache:        cache,
		instanceRepo: instanceRepo,
		logger:       logger,
	}, nil
}

// Studies lists the studies of a server. Cached responses are served when the
// request allows it; fresh responses are cached before the filter is applied
// so later requests with other filters reuse them.
func (s *browseService) Studies(ctx context.Context, request *dicom.BrowseStudiesRequest) (*dicom.BrowseStudiesResult, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	studies, retrievedAt, fromCache := s.cachedStudies(request)
	if !fromCache {
		fresh, err := s.connector.SearchStudies(ctx, request.ServerURL)
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
		if err := s.cache.PutStudies(request.ServerURL, fresh); err != nil {
			s.logger.Warn("Failed to cache study list: ", err.Error())
		}
		studies = fresh
		retrievedAt = time.Now().UTC()
	}

	filtered := make([]*dicom.RemoteStudy, 0, len(studies))
	for _, study := range studies {
		if study.MatchesFilter(request.Filter) {
			filtered = append(filtered, study)
		}
	}

	return &dicom.BrowseStudiesResult{
		Studies:     filtered,
		FromCache:   fromCache,
		RetrievedAt: retrievedAt,
	}, nil
}

// Series lists the series of one remote study. The stored flag is computed
// against the local index on every call, including cache hits, so it follows
// downloads and deletions.
func (s *browseService) Series(ctx context.Context, request *dicom.BrowseSeriesRequest) (*dicom.BrowseSeriesResult, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	series, retrievedAt, fromCache := s.cachedSeries(request)
	if !fromCache {
		fresh, err := s.connector.SearchSeries(ctx, request.ServerURL, request.StudyInstanceUID)
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
		if err := s.cache.PutSeries(request.ServerURL, request.StudyInstanceUID, fresh); err != nil {
			s.logger.Warn("Failed to cache series list: ", err.Error())
		}
		series = fresh
		retrievedAt = time.Now().UTC()
	}

	for _, item := range series {
		stored, err := s.seriesStored(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
		item.Stored = stored
	}

	return &dicom.BrowseSeriesResult{
		Series:      series,
		FromCache:   fromCache,
		RetrievedAt: retrievedAt,
	}, nil
}

// DeleteRemoteSeries deletes a series on the remote server and invalidates
// the cached responses it appeared in.
func (s *browseService) DeleteRemoteSeries(ctx context.Context, serverURL, studyUID, seriesUID string) error {
	if err := s.connector.DeleteSeries(ctx, serverURL, studyUID, seriesUID); err != nil {
		return fmt.Errorf("%w", err)
	}

	if err := s.cache.InvalidateSeries(serverURL, studyUID); err != nil {
		return fmt.Errorf("%w", err)
	}
	if err := s.cache.InvalidateStudies(serverURL); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// ClearCache drops every cached server response.
func (s *browseService) ClearCache() error {
	return s.cache.Clear()
}

func (s *browseService) cachedStudies(request *dicom.BrowseStudiesRequest) ([]*dicom.RemoteStudy, time.Time, bool) {
	if !request.UseCache {
		return nil, time.Time{}, false
	}
	return s.cache.GetStudies(request.ServerURL)
}

func (s *browseService) cachedSeries(request *dicom.BrowseSeriesRequest) ([]*dicom.RemoteSeries, time.Time, bool) {
	if !request.UseCache {
		return nil, time.Time{}, false
	}
	return s.cache.GetSeries(request.ServerURL, request.StudyInstanceUID)
}

// seriesStored reports whether the series is already fully present in the
// local index. Servers that do not report an instance count get the weaker
// check that anything of the series is indexed.
func (s *browseService) seriesStored(ctx context.Context, series *dicom.RemoteSeries) (bool, error) {
	count, err := s.instanceRepo.CountBySeries(ctx, series.SeriesInstanceUID)
	if err != nil {
		return false, err
	}
	if series.NumberOfInstances > 0 {
		return count >= int64(series.NumberOfInstances), nil
	}
	return count > 0, nil
}
