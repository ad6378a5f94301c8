package connector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"golang.org/x/time/rate"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/metrics"
)

const (
	defaultPageSize          = 100
	defaultRetryAttempts     = 3
	defaultRetryDelay        = 2 * time.Second
	defaultRequestsPerSecond = 10

	// requestTimeout is an upper bound per attempt; WADO-RS instance
	// retrievals of large multi-frame files stay well under it.
	requestTimeout = 5 * time.Minute

	acceptDicomJSON     = "application/dicom+json"
	acceptMultipartWADO = `multipart/related; type="application/dicom"`
)

const (
	opSearchStudies    = "search_studies"
	opSearchSeries     = "search_series"
	opSearchInstances  = "search_instances"
	opRetrieveInstance = "retrieve_instance"
	opDeleteSeries     = "delete_series"
)

// StatusError is a terminal non-2xx response from a DICOMweb server.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dicomweb request failed with status %s for %s", e.Status, e.URL)
}

type webResponse struct {
	status int
	header http.Header
	body   []byte
}

type dicomwebConnector struct {
	httpClient    *http.Client
	auth          *authenticator
	limiter       *rate.Limiter
	pageSize      int
	retryAttempts int
	retryDelay    time.Duration
	logger        logger.Logger
}

// NewDicomwebConnector creates a QIDO-RS/WADO-RS client configured from
// settings. Transient failures (HTTP 5xx and network errors) are retried,
// outbound requests are rate limited.
func NewDicomwebConnector(settings *config.RemoteSettings, logger logger.Logger) (dicom.WebConnector, error) {
	if settings == nil {
		return nil, errors.New("remote settings must not be nil")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid remote settings: %w", err)
	}

	pageSize := settings.PageSize
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	attempts := settings.RetryAttempts
	if attempts == 0 {
		attempts = defaultRetryAttempts
	}
	delay := time.Duration(settings.RetryDelaySeconds) * time.Second
	if delay == 0 {
		delay = defaultRetryDelay
	}
	requestsPerSecond := settings.RequestsPerSecond
	if requestsPerSecond == 0 {
		requestsPerSecond = defaultRequestsPerSecond
	}
	burst := settings.RequestBurst
	if burst == 0 {
		burst = int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	return &dicomwebConnector{
		httpClient:    &http.Client{Timeout: requestTimeout},
		auth:          newAuthenticator(settings, logger),
		limiter:       rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		pageSize:      pageSize,
		retryAttempts: attempts,
		retryDelay:    delay,
		logger:        logger,
	}, nil
}

// SearchStudies runs a paged QIDO-RS study search and returns every study
// the server reports. Paging stops on an empty page, HTTP 204, or a page
// whose first study was already collected; servers that ignore the offset
// parameter keep returning page one forever.
func (c *dicomwebConnector) SearchStudies(ctx context.Context, serverURL string) ([]*dicom.RemoteStudy, error) {
	ep, err := c.auth.resolve(serverURL)
	if err != nil {
		return nil, err
	}

	var studies []*dicom.RemoteStudy
	seen := make(map[string]struct{})

	for offset := 0; ; {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(c.pageSize))
		query.Set("offset", strconv.Itoa(offset))
		query.Set("includefield", "StudyDescription")

		resp, err := c.request(ctx, opSearchStudies, http.MethodGet, ep, "/studies?"+query.Encode(), acceptDicomJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to search studies on %s: %w", ep.baseURL, err)
		}
		if resp.status == http.StatusNoContent || len(resp.body) == 0 {
			break
		}

		page, err := decodeStudies(resp.body)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		if _, ok := seen[page[0].StudyInstanceUID]; ok {
			break
		}

		for _, study := range page {
			if _, ok := seen[study.StudyInstanceUID]; ok {
				continue
			}
			seen[study.StudyInstanceUID] = struct{}{}
			studies = append(studies, study)
		}
		offset += len(page)
	}

	c.logger.Info("Found ", len(studies), " studies on ", ep.baseURL)
	return studies, nil
}

// SearchSeries runs a QIDO-RS series search within one study.
func (c *dicomwebConnector) SearchSeries(ctx context.Context, serverURL, studyUID string) ([]*dicom.RemoteSeries, error) {
	ep, err := c.auth.resolve(serverURL)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/studies/%s/series?includefield=SeriesNumber", url.PathEscape(studyUID))
	resp, err := c.request(ctx, opSearchSeries, http.MethodGet, ep, path, acceptDicomJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to search series of study %s: %w", studyUID, err)
	}
	if resp.status == http.StatusNoContent {
		return nil, nil
	}

	series, err := decodeSeries(resp.body)
	if err != nil {
		return nil, err
	}
	for _, s := range series {
		s.StudyInstanceUID = studyUID
	}

	c.logger.Info("Found ", len(series), " series in study ", studyUID)
	return series, nil
}

// SearchInstances runs a QIDO-RS instance search within one series.
func (c *dicomwebConnector) SearchInstances(ctx context.Context, serverURL, studyUID, seriesUID string) ([]*dicom.RemoteInstanceRef, error) {
	ep, err := c.auth.resolve(serverURL)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/studies/%s/series/%s/instances", url.PathEscape(studyUID), url.PathEscape(seriesUID))
	resp, err := c.request(ctx, opSearchInstances, http.MethodGet, ep, path, acceptDicomJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to search instances of series %s: %w", seriesUID, err)
	}
	if resp.status == http.StatusNoContent {
		return nil, nil
	}

	return decodeInstanceRefs(resp.body)
}

// RetrieveInstance fetches one instance via WADO-RS and returns the DICOM
// file bytes. Multipart responses yield the first part; plain
// application/dicom responses are accepted as-is.
func (c *dicomwebConnector) RetrieveInstance(ctx context.Context, serverURL, studyUID, seriesUID, sopUID string) ([]byte, error) {
	ep, err := c.auth.resolve(serverURL)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/studies/%s/series/%s/instances/%s",
		url.PathEscape(studyUID), url.PathEscape(seriesUID), url.PathEscape(sopUID))
	resp, err := c.request(ctx, opRetrieveInstance, http.MethodGet, ep, path, acceptMultipartWADO)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve instance %s: %w", sopUID, err)
	}

	data, err := extractDicomPart(resp.header, resp.body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode WADO-RS response for instance %s: %w", sopUID, err)
	}

	metrics.InstancesDownloaded.Inc()
	metrics.DownloadBytes.Add(float64(len(data)))
	return data, nil
}

// DeleteSeries deletes a series on the server. This is a non-standard
// extension supported by dcm4chee and Kheops class servers.
func (c *dicomwebConnector) DeleteSeries(ctx context.Context, serverURL, studyUID, seriesUID string) error {
	ep, err := c.auth.resolve(serverURL)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/studies/%s/series/%s", url.PathEscape(studyUID), url.PathEscape(seriesUID))
	if _, err := c.request(ctx, opDeleteSeries, http.MethodDelete, ep, path, ""); err != nil {
		return fmt.Errorf("failed to delete series %s on server: %w", seriesUID, err)
	}

	c.logger.Info("Deleted series ", seriesUID, " on ", ep.baseURL)
	return nil
}

// request performs one rate limited HTTP call with retries. HTTP 4xx
// responses and context cancellation are fatal, 5xx and network errors are
// retried with a fixed delay.
func (c *dicomwebConnector) request(ctx context.Context, operation, method string, ep *endpoint, path, accept string) (*webResponse, error) {
	requestURL := ep.baseURL + path

	var resp *webResponse
	var lastErr error

	err := retry.Call(retry.CallArgs{
		Func: func() error {
			result, err := c.attempt(ctx, operation, method, requestURL, ep, accept)
			if err != nil {
				return err
			}
			resp = result
			return nil
		},
		IsFatalError: func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.Code < http.StatusInternalServerError
			}
			return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		NotifyFunc: func(err error, attempt int) {
			lastErr = err
			c.logger.Warn("Attempt ", attempt, " of ", operation, " request failed, retrying: ", err.Error())
		},
		Attempts: c.retryAttempts,
		Delay:    c.retryDelay,
		Clock:    clock.WallClock,
		Stop:     ctx.Done(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if retry.IsAttemptsExceeded(err) {
			return nil, fmt.Errorf("giving up after %d attempts: %w", c.retryAttempts, lastErr)
		}
		return nil, err
	}
	return resp, nil
}

func (c *dicomwebConnector) attempt(ctx context.Context, operation, method, requestURL string, ep *endpoint, accept string) (*webResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if err := c.auth.apply(ctx, req, ep); err != nil {
		return nil, err
	}

	started := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.DicomwebRequests.WithLabelValues(operation, "error").Inc()
		return nil, fmt.Errorf("%s request failed: %w", operation, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	metrics.DicomwebRequests.WithLabelValues(operation, strconv.Itoa(httpResp.StatusCode)).Inc()
	metrics.DicomwebRequestSeconds.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response body: %w", operation, err)
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{Code: httpResp.StatusCode, Status: httpResp.Status, URL: requestURL}
	}

	return &webResponse{status: httpResp.StatusCode, header: httpResp.Header, body: body}, nil
}

// extractDicomPart unwraps a WADO-RS response body: the first part of a
// multipart/related payload, or the body itself for single-part responses.
func extractDicomPart(header http.Header, body []byte) ([]byte, error) {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		return body, nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to parse content type %q: %w", contentType, err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return body, nil
	}

	boundary := params["boundary"]
	if boundary == "" {
		return nil, errors.New("multipart response is missing a boundary")
	}

	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	part, err := reader.NextPart()
	if err != nil {
		return nil, fmt.Errorf("failed to read first multipart part: %w", err)
	}
	data, err := io.ReadAll(part)
	if err != nil {
		return nil, fmt.Errorf("failed to read multipart part body: %w", err)
	}
	return data, nil
}
