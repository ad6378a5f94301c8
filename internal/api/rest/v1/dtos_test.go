//go:build unit
// +build unit

package v1

import (
	"testing"
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStartRetrievalRequest() *StartRetrievalRequest {
	return &StartRetrievalRequest{
		ServerURL: "https://pacs.example.com/dicomweb",
		Mode:      "Load",
		Items: []RetrievalItemRequest{
			{StudyInstanceUID: "1.2.3.4", SeriesInstanceUID: "1.2.3.4.1"},
		},
	}
}

func TestStartRetrievalRequest_Validate_Success(t *testing.T) {
	request := validStartRetrievalRequest()
	assert.NoError(t, request.Validate())
}

func TestStartRetrievalRequest_Validate_InvalidServerURL_Error(t *testing.T) {
	request := validStartRetrievalRequest()
	request.ServerURL = "not a url"

	err := request.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ServerURL")
}

func TestStartRetrievalRequest_Validate_InvalidMode_Error(t *testing.T) {
	request := validStartRetrievalRequest()
	request.Mode = "Stream"

	err := request.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mode")
}

func TestStartRetrievalRequest_Validate_NoItems_Error(t *testing.T) {
	request := validStartRetrievalRequest()
	request.Items = nil

	err := request.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Items")
}

func TestStartRetrievalRequest_Validate_InvalidSeriesUID_Error(t *testing.T) {
	request := validStartRetrievalRequest()
	request.Items[0].SeriesInstanceUID = "series-one"

	err := request.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SeriesInstanceUID")
}

func TestStartRetrievalRequest_ToRetrievalRequest(t *testing.T) {
	request := validStartRetrievalRequest()

	domainRequest := request.ToRetrievalRequest()

	assert.Equal(t, request.ServerURL, domainRequest.ServerURL)
	assert.Equal(t, retrieval.ModeLoad, domainRequest.Mode)
	require.Len(t, domainRequest.Items, 1)
	assert.Equal(t, "1.2.3.4", domainRequest.Items[0].StudyInstanceUID)
	assert.Equal(t, "1.2.3.4.1", domainRequest.Items[0].SeriesInstanceUID)
}

func TestNewRetrievalJobResponse_FinishedAt(t *testing.T) {
	job := &retrieval.Job{
		ID:        "job-1",
		Mode:      retrieval.ModeIndex,
		Status:    retrieval.StatusRunning,
		StartedAt: time.Now(),
	}

	response := newRetrievalJobResponse(job)
	assert.Nil(t, response.FinishedAt, "a running job has no finish time")

	job.Status = retrieval.StatusCompleted
	job.FinishedAt = time.Now()

	response = newRetrievalJobResponse(job)
	require.NotNil(t, response.FinishedAt)
	assert.Equal(t, job.FinishedAt, *response.FinishedAt)
}
