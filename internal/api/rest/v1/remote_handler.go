package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"

	"github.com/gin-gonic/gin"
)

// CacheRetrievedAtHeader carries the original retrieval time of a response
// that was served from the on-disk cache.
const CacheRetrievedAtHeader = "X-Cache-Retrieved-At"

// RemoteHandler defines the interface for browsing and editing a remote
// DICOMweb server
type RemoteHandler interface {
	ListStudies(ctx *gin.Context)
	ListSeries(ctx *gin.Context)
	DeleteSeries(ctx *gin.Context)
}

// remoteHandler struct holds the services
type remoteHandler struct {
	browseService dicom.BrowseService
}

// NewRemoteHandler creates a new RemoteHandler
func NewRemoteHandler(browseService dicom.BrowseService) RemoteHandler {
	return &remoteHandler{
		browseService: browseService,
	}
}

// ListStudies lists the studies of the DICOMweb server named by the server
// query parameter, served from the response cache unless useCache=false
func (handler *remoteHandler) ListStudies(ctx *gin.Context) {
	request := &dicom.BrowseStudiesRequest{
		ServerURL: ctx.Query("server"),
		Filter:    ctx.Query("filter"),
		UseCache:  ctx.Query("useCache") != "false",
	}

	if err := request.Validate(); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("validation failed: %v", err.Error())
		ctx.JSON(http.StatusBadRequest, errorResponse)
		return
	}

	result, err := handler.browseService.Studies(ctx, request)
	if err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("could not list studies on %s: %v", request.ServerURL, err.Error())
		ctx.JSON(http.StatusBadGateway, errorResponse)
		return
	}

	if result.FromCache {
		ctx.Header(CacheRetrievedAtHeader, result.RetrievedAt.UTC().Format(time.RFC3339))
	}

	listResponse := []RemoteStudyResponse{}
	for _, study := range result.Studies {
		listResponse = append(listResponse, newRemoteStudyResponse(study))
	}
	ctx.JSON(http.StatusOK, listResponse)
}

// ListSeries lists the series of one remote study
func (handler *remoteHandler) ListSeries(ctx *gin.Context) {
	request := &dicom.BrowseSeriesRequest{
		ServerURL:        ctx.Query("server"),
		StudyInstanceUID: ctx.Param("studyUID"),
		UseCache:         ctx.Query("useCache") != "false",
	}

	if err := request.Validate(); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("validation failed: %v", err.Error())
		ctx.JSON(http.StatusBadRequest, errorResponse)
		return
	}

	result, err := handler.browseService.Series(ctx, request)
	if err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("could not list series of study %s: %v", request.StudyInstanceUID, err.Error())
		ctx.JSON(http.StatusBadGateway, errorResponse)
		return
	}

	if result.FromCache {
		ctx.Header(CacheRetrievedAtHeader, result.RetrievedAt.UTC().Format(time.RFC3339))
	}

	listResponse := []RemoteSeriesResponse{}
	for _, series := range result.Series {
		listResponse = append(listResponse, newRemoteSeriesResponse(series))
	}
	ctx.JSON(http.StatusOK, listResponse)
}

// DeleteSeries deletes a series on the remote server and invalidates the
// cached responses it appeared in
func (handler *remoteHandler) DeleteSeries(ctx *gin.Context) {
	serverURL := ctx.Query("server")
	studyUID := ctx.Param("studyUID")
	seriesUID := ctx.Param("seriesUID")

	if serverURL == "" {
		var errorResponse ErrorResponse
		errorResponse.Message = "server query parameter is required"
		ctx.JSON(http.StatusBadRequest, errorResponse)
		return
	}

	if err := handler.browseService.DeleteRemoteSeries(ctx, serverURL, studyUID, seriesUID); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("could not delete series %s on %s: %v", seriesUID, serverURL, err.Error())
		ctx.JSON(http.StatusBadGateway, errorResponse)
		return
	}

	var infoResponse InfoResponse
	infoResponse.Message = fmt.Sprintf("deleted series %s on %s", seriesUID, serverURL)
	ctx.JSON(http.StatusOK, infoResponse)
}
