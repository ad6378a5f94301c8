package v1

import (
	"fmt"
	"net/http"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DatabaseHandler defines the interface for browsing and editing the local
// DICOM database
type DatabaseHandler interface {
	ListStudies(ctx *gin.Context)
	ListSeries(ctx *gin.Context)
	ListInstances(ctx *gin.Context)
	DeleteSeries(ctx *gin.Context)
	DownloadInstanceFile(ctx *gin.Context)
	ListVolumes(ctx *gin.Context)
	GetVolumeByID(ctx *gin.Context)
	DeleteVolumeByID(ctx *gin.Context)
}

// databaseHandler struct holds the services
type databaseHandler struct {
	localIndexService dicom.LocalIndexService
}

// NewDatabaseHandler creates a new DatabaseHandler
func NewDatabaseHandler(localIndexService dicom.LocalIndexService) DatabaseHandler {
	return &databaseHandler{
		localIndexService: localIndexService,
	}
}

// applyListParams copies the shared paging and sorting query parameters.
func applyListParams(ctx *gin.Context, sortBy, sortOrder *string, limit, offset *int) {
	if value := ctx.Query("sortBy"); len(value) > 0 {
		*sortBy = value
	}
	if value := ctx.Query("sortOrder"); len(value) > 0 {
		*sortOrder = value
	}
	if value := ctx.Query("limit"); len(value) > 0 {
		*limit = utils.ConvertToInt(value)
	}
	if value := ctx.Query("offset"); len(value) > 0 {
		*offset = utils.ConvertToInt(value)
	}
}

// ListStudies lists indexed studies optionally with query parameters
func (handler *databaseHandler) ListStudies(ctx *gin.Context) {
	query := dicom.NewStudyQuery()
	query.Filter = ctx.Query("filter")
	applyListParams(ctx, &query.SortBy, &query.SortOrder, &query.Limit, &query.Offset)

	if err := query.Validate(); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("validation failed: %v", err.Error())
		ctx.JSON(http.StatusBadRequest, errorResponse)
		return
	}

	studies, err := handler.localIndexService.ListStudies(ctx, query)
	if err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("list query failed: %v", err.Error())
		ctx.JSON(http.StatusInternalServerError, errorResponse)
		return
	}

	listResponse := []StudyResponse{}
	for _, study := range studies {
		listResponse = append(listResponse, newStudyResponse(study))
	}
	ctx.JSON(http.StatusOK, listResponse)
}

// ListSeries lists the indexed series of one study
func (handler *databaseHandler) ListSeries(ctx *gin.Context) {
	query := dicom.NewSeriesQuery()
	query.StudyInstanceUID = ctx.Param("studyUID")
	query.Filter = ctx.Query("filter")
	applyListParams(ctx, &query.SortBy, &query.SortOrder, &query.Limit, &query.Offset)

	if err := query.Validate(); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("validation failed: %v", err.Error())
		ctx.JSON(http.StatusBadRequest, errorResponse)
		return
	}

	series, err := handler.localIndexService.ListSeries(ctx, query)
	if err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("list query failed: %v", err.Error())
		ctx.JSON(http.StatusInternalServerError, errorResponse)
		return
	}

	listResponse := []SeriesResponse{}
	for _, s := range series {
		listResponse = append(listResponse, newSeriesResponse(s))
	}
	ctx.JSON(http.StatusOK, listResponse)
}

// ListInstances lists the indexed instances of one series
func (handler *databaseHandler) ListInstances(ctx *gin.Context) {
	query := dicom.NewInstanceQuery()
	query.SeriesInstanceUID = ctx.Param("seriesUID")
	applyListParams(ctx, &query.SortBy, &query.SortOrder, &query.Limit, &query.Offset)

	if err := query.Validate(); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("validation failed: %v", err.Error())
		ctx.JSON(http.StatusBadRequest, errorResponse)
		return
	}

	instances, err := handler.localIndexService.ListInstances(ctx, query)
	if err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("list query failed: %v", err.Error())
		ctx.JSON(http.StatusInternalServerError, errorResponse)
		return
	}

	listResponse := []InstanceResponse{}
	for _, instance := range instances {
		listResponse = append(listResponse, newInstanceResponse(instance))
	}
	ctx.JSON(http.StatusOK, listResponse)
}

// DeleteSeries removes a series from the local index together with its
// stored files and loaded volumes
func (handler *databaseHandler) DeleteSeries(ctx *gin.Context) {
	seriesUID := ctx.Param("seriesUID")

	if err := handler.localIndexService.DeleteSeries(ctx, seriesUID); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("series with uid %s not found", seriesUID)
		ctx.JSON(http.StatusNotFound, errorResponse)
		return
	}

	var infoResponse InfoResponse
	infoResponse.Message = fmt.Sprintf("deleted series with uid %s", seriesUID)
	ctx.JSON(http.StatusNoContent, infoResponse)
}

// DownloadInstanceFile downloads the stored DICOM file of one instance
func (handler *databaseHandler) DownloadInstanceFile(ctx *gin.Context) {
	sopUID := ctx.Param("sopUID")

	instance, data, err := handler.localIndexService.InstanceFile(ctx, sopUID)
	if err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("instance with uid %s not found", sopUID)
		ctx.JSON(http.StatusNotFound, errorResponse)
		return
	}

	ctx.Writer.Header().Set("Content-Type", "application/dicom")
	ctx.Writer.Header().Set("Content-Disposition", "attachment; filename="+instance.SOPInstanceUID+".dcm")
	ctx.Writer.WriteHeader(http.StatusOK)

	if _, err := ctx.Writer.Write(data); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("could not write bytes: %v", err.Error())
		ctx.JSON(http.StatusInternalServerError, errorResponse)
		return
	}
}

// ListVolumes lists the scene registry optionally with query parameters
func (handler *databaseHandler) ListVolumes(ctx *gin.Context) {
	query := dicom.NewVolumeQuery()
	if seriesUID := ctx.Query("series"); len(seriesUID) > 0 {
		query.SeriesInstanceUID = seriesUID
	}
	applyListParams(ctx, &query.SortBy, &query.SortOrder, &query.Limit, &query.Offset)

	if err := query.Validate(); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("validation failed: %v", err.Error())
		ctx.JSON(http.StatusBadRequest, errorResponse)
		return
	}

	volumes, err := handler.localIndexService.ListVolumes(ctx, query)
	if err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("list query failed: %v", err.Error())
		ctx.JSON(http.StatusInternalServerError, errorResponse)
		return
	}

	listResponse := []VolumeResponse{}
	for _, volume := range volumes {
		listResponse = append(listResponse, newVolumeResponse(volume))
	}
	ctx.JSON(http.StatusOK, listResponse)
}

// GetVolumeByID fetches one volume of the scene registry
func (handler *databaseHandler) GetVolumeByID(ctx *gin.Context) {
	volumeID := ctx.Param("id")

	volume, err := handler.localIndexService.GetVolume(ctx, volumeID)
	if err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("volume with id %s not found", volumeID)
		ctx.JSON(http.StatusNotFound, errorResponse)
		return
	}

	ctx.JSON(http.StatusOK, newVolumeResponse(volume))
}

// DeleteVolumeByID removes a volume from the scene registry
func (handler *databaseHandler) DeleteVolumeByID(ctx *gin.Context) {
	volumeID := ctx.Param("id")

	if err := handler.localIndexService.DeleteVolume(ctx, volumeID); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("volume with id %s not found", volumeID)
		ctx.JSON(http.StatusNotFound, errorResponse)
		return
	}

	var infoResponse InfoResponse
	infoResponse.Message = fmt.Sprintf("deleted volume with id %s", volumeID)
	ctx.JSON(http.StatusNoContent, infoResponse)
}
