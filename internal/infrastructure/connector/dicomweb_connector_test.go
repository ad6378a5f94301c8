//go:build unit
// +build unit

package connector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnector(t *testing.T, settings *config.RemoteSettings) *dicomwebConnector {
	t.Helper()

	log := testutil.SetupTestLogger(t)
	c, err := NewDicomwebConnector(settings, log)
	require.NoError(t, err)

	conn, ok := c.(*dicomwebConnector)
	require.True(t, ok)
	conn.retryDelay = 5 * time.Millisecond
	return conn
}

func studyJSON(uid string) string {
	return fmt.Sprintf(`{
		"0020000D": {"vr": "UI", "Value": ["%s"]},
		"00100010": {"vr": "PN", "Value": [{"Alphabetic": "Doe^Jane"}]},
		"00081030": {"vr": "LO", "Value": ["CHEST CT"]}
	}`, uid)
}

func writeStudyPage(w http.ResponseWriter, uids []string) {
	w.Header().Set("Content-Type", "application/dicom+json")
	body := "["
	for i, uid := range uids {
		if i > 0 {
			body += ","
		}
		body += studyJSON(uid)
	}
	body += "]"
	_, _ = w.Write([]byte(body))
}

func TestSearchStudiesPaged(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RawQuery)
		assert.Equal(t, "/studies", r.URL.Path)
		assert.Equal(t, "application/dicom+json", r.Header.Get("Accept"))

		offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
		assert.NoError(t, err)

		// 5 studies in total with a page size of 2.
		var uids []string
		for i := offset; i < offset+2 && i < 5; i++ {
			uids = append(uids, fmt.Sprintf("1.2.840.%d", i))
		}
		if len(uids) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeStudyPage(w, uids)
	}))
	defer server.Close()

	conn := newTestConnector(t, &config.RemoteSettings{PageSize: 2})

	studies, err := conn.SearchStudies(context.Background(), server.URL)
	require.NoError(t, err)

	require.Len(t, studies, 5)
	assert.Equal(t, "1.2.840.0", studies[0].StudyInstanceUID)
	assert.Equal(t, "1.2.840.4", studies[4].StudyInstanceUID)
	assert.Equal(t, "Doe^Jane", studies[0].PatientName)

	// Pages at offsets 0, 2 and 4 carry studies, the offset 5 page is empty.
	require.Len(t, requests, 4)
	assert.Contains(t, requests[0], "offset=0")
	assert.Contains(t, requests[0], "limit=2")
	assert.Contains(t, requests[0], "includefield=StudyDescription")
	assert.Contains(t, requests[3], "offset=5")
}

func TestSearchStudiesStopsWhenOffsetIgnored(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		// Same first page regardless of the requested offset.
		writeStudyPage(w, []string{"1.2.840.1", "1.2.840.2"})
	}))
	defer server.Close()

	conn := newTestConnector(t, &config.RemoteSettings{PageSize: 2})

	studies, err := conn.SearchStudies(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Len(t, studies, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount))
}

func TestSearchStudiesNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	conn := newTestConnector(t, &config.RemoteSettings{})

	studies, err := conn.SearchStudies(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Empty(t, studies)
}

func TestSearchSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/studies/1.2.840.1/series", r.URL.Path)
		assert.Equal(t, "SeriesNumber", r.URL.Query().Get("includefield"))

		w.Header().Set("Content-Type", "application/dicom+json")
		_, _ = w.Write([]byte(`[
			{
				"0020000E": {"vr": "UI", "Value": ["1.2.840.1.1"]},
				"00080060": {"vr": "CS", "Value": ["CT"]},
				"00200011": {"vr": "IS", "Value": [2]},
				"0008103E": {"vr": "LO", "Value": ["AXIAL"]},
				"00201209": {"vr": "IS", "Value": [10]}
			}
		]`))
	}))
	defer server.Close()

	conn := newTestConnector(t, &config.RemoteSettings{})

	series, err := conn.SearchSeries(context.Background(), server.URL, "1.2.840.1")
	require.NoError(t, err)

	require.Len(t, series, 1)
	assert.Equal(t, "1.2.840.1.1", series[0].SeriesInstanceUID)
	assert.Equal(t, "1.2.840.1", series[0].StudyInstanceUID)
	assert.Equal(t, "CT", series[0].Modality)
	assert.Equal(t, 10, series[0].NumberOfInstances)
}

func TestSearchInstances(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/studies/1.2.840.1/series/1.2.840.1.1/instances", r.URL.Path)

		w.Header().Set("Content-Type", "application/dicom+json")
		_, _ = w.Write([]byte(`[
			{"00080018": {"vr": "UI", "Value": ["1.2.840.1.1.1"]}},
			{"00080018": {"vr": "UI", "Value": ["1.2.840.1.1.2"]}}
		]`))
	}))
	defer server.Close()

	conn := newTestConnector(t, &config.RemoteSettings{})

	refs, err := conn.SearchInstances(context.Background(), server.URL, "1.2.840.1", "1.2.840.1.1")
	require.NoError(t, err)

	require.Len(t, refs, 2)
	assert.Equal(t, "1.2.840.1.1.1", refs[0].SOPInstanceUID)
}

func TestRetrieveInstanceMultipart(t *testing.T) {
	fileBytes := []byte("DICM fake instance payload")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/studies/1.2.840.1/series/1.2.840.1.1/instances/1.2.840.1.1.1", r.URL.Path)
		assert.Contains(t, r.Header.Get("Accept"), "multipart/related")

		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/dicom"}})
		assert.NoError(t, err)
		_, err = part.Write(fileBytes)
		assert.NoError(t, err)
		assert.NoError(t, writer.Close())

		w.Header().Set("Content-Type",
			fmt.Sprintf(`multipart/related; type="application/dicom"; boundary=%s`, writer.Boundary()))
		_, _ = w.Write(buf.Bytes())
	}))
	defer server.Close()

	conn := newTestConnector(t, &config.RemoteSettings{})

	data, err := conn.RetrieveInstance(context.Background(), server.URL, "1.2.840.1", "1.2.840.1.1", "1.2.840.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, fileBytes, data)
}

func TestRetrieveInstanceSinglePart(t *testing.T) {
	fileBytes := []byte("DICM single part payload")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/dicom")
		_, _ = w.Write(fileBytes)
	}))
	defer server.Close()

	conn := newTestConnector(t, &config.RemoteSettings{})

	data, err := conn.RetrieveInstance(context.Background(), server.URL, "1.2.840.1", "1.2.840.1.1", "1.2.840.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, fileBytes, data)
}

func TestDeleteSeries(t *testing.T) {
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	conn := newTestConnector(t, &config.RemoteSettings{})

	err := conn.DeleteSeries(context.Background(), server.URL, "1.2.840.1", "1.2.840.1.1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/studies/1.2.840.1/series/1.2.840.1.1", path)
}

func TestRequestRetriesServerErrors(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&requestCount, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeStudyPage(w, []string{"1.2.840.1"})
	}))
	defer server.Close()

	conn := newTestConnector(t, &config.RemoteSettings{RetryAttempts: 3})

	studies, err := conn.SearchStudies(context.Background(), server.URL)
	require.NoError(t, err)

	// The first study page needed 3 attempts, the empty page one more.
	assert.Len(t, studies, 1)
	assert.Equal(t, int32(4), atomic.LoadInt32(&requestCount))
}

func TestRequestClientErrorIsFatal(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	conn := newTestConnector(t, &config.RemoteSettings{RetryAttempts: 3})

	_, err := conn.SearchStudies(context.Background(), server.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount), "client errors must not be retried")
}

func TestRequestRetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	conn := newTestConnector(t, &config.RemoteSettings{RetryAttempts: 2})

	_, err := conn.SearchStudies(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 2 attempts")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
}

func TestRequestSendsConfiguredAuthHeader(t *testing.T) {
	var authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	conn := newTestConnector(t, &config.RemoteSettings{
		AuthProfile: config.AuthProfileBearer,
		Token:       "abc",
	})

	_, err := conn.SearchStudies(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", authorization)
}

func TestSearchStudiesCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := newTestConnector(t, &config.RemoteSettings{})

	_, err := conn.SearchStudies(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
