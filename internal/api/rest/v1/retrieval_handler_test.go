//go:build unit
// +build unit

package v1

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/retrieval"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testJob() *retrieval.Job {
	return &retrieval.Job{
		ID:        "41d5e825-9ae9-4e8d-bd1a-e22a1b6a4696",
		ServerURL: testServerURL,
		Mode:      retrieval.ModeIndex,
		Status:    retrieval.StatusRunning,
		Items: []*retrieval.ItemProgress{
			{
				Item: retrieval.Item{
					StudyInstanceUID:  "1.2.3.4",
					SeriesInstanceUID: "1.2.3.4.1",
				},
				Status:         retrieval.StatusRunning,
				InstancesTotal: 10,
				InstancesDone:  3,
			},
		},
		StartedAt: time.Now(),
	}
}

func TestRetrievalHandler_Start_Success(t *testing.T) {
	mockRetrievalService := new(MockRetrievalService)
	handler := NewRetrievalHandler(mockRetrievalService)

	mockRetrievalService.On("Start", mock.Anything, mock.Anything).Return(testJob(), nil)

	body := []byte(`{
		"serverUrl": "` + testServerURL + `",
		"mode": "Index",
		"items": [{"studyInstanceUid": "1.2.3.4", "seriesInstanceUid": "1.2.3.4.1"}]
	}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/retrievals", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Start(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "41d5e825-9ae9-4e8d-bd1a-e22a1b6a4696")
	assert.Contains(t, w.Body.String(), `"instancesTotal":10`)
	mockRetrievalService.AssertExpectations(t)
}

func TestRetrievalHandler_Start_InvalidBody_Error(t *testing.T) {
	mockRetrievalService := new(MockRetrievalService)
	handler := NewRetrievalHandler(mockRetrievalService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/retrievals", bytes.NewReader([]byte("not json")))

	handler.Start(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
	mockRetrievalService.AssertNotCalled(t, "Start")
}

func TestRetrievalHandler_Start_InvalidMode_Error(t *testing.T) {
	mockRetrievalService := new(MockRetrievalService)
	handler := NewRetrievalHandler(mockRetrievalService)

	body := []byte(`{
		"serverUrl": "` + testServerURL + `",
		"mode": "Stream",
		"items": [{"studyInstanceUid": "1.2.3.4", "seriesInstanceUid": "1.2.3.4.1"}]
	}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/retrievals", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Start(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation failed")
	mockRetrievalService.AssertNotCalled(t, "Start")
}

func TestRetrievalHandler_List_Success(t *testing.T) {
	mockRetrievalService := new(MockRetrievalService)
	handler := NewRetrievalHandler(mockRetrievalService)

	mockRetrievalService.On("List").Return([]*retrieval.Job{testJob()})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/retrievals", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "41d5e825-9ae9-4e8d-bd1a-e22a1b6a4696")
	mockRetrievalService.AssertExpectations(t)
}

func TestRetrievalHandler_GetByID_NotFound_Error(t *testing.T) {
	mockRetrievalService := new(MockRetrievalService)
	handler := NewRetrievalHandler(mockRetrievalService)

	mockRetrievalService.On("Status", "missing").Return(nil, assert.AnError)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/retrievals/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not found")
}

func TestRetrievalHandler_Cancel_Success(t *testing.T) {
	mockRetrievalService := new(MockRetrievalService)
	handler := NewRetrievalHandler(mockRetrievalService)

	job := testJob()
	mockRetrievalService.On("Cancel", job.ID).Return(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("DELETE", "/retrievals/"+job.ID, nil)
	c.Params = gin.Params{{Key: "id", Value: job.ID}}

	handler.Cancel(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "canceling retrieval job")
	mockRetrievalService.AssertExpectations(t)
}
