package v1

import (
	"fmt"
	"net/http"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/retrieval"

	"github.com/gin-gonic/gin"
)

// RetrievalHandler defines the interface for managing retrieval jobs
type RetrievalHandler interface {
	Start(ctx *gin.Context)
	List(ctx *gin.Context)
	GetByID(ctx *gin.Context)
	Cancel(ctx *gin.Context)
}

// retrievalHandler struct holds the services
type retrievalHandler struct {
	retrievalService retrieval.Service
}

// NewRetrievalHandler creates a new RetrievalHandler
func NewRetrievalHandler(retrievalService retrieval.Service) RetrievalHandler {
	return &retrievalHandler{
		retrievalService: retrievalService,
	}
}

// Start queues the requested series for download and returns the job snapshot
func (handler *retrievalHandler) Start(ctx *gin.Context) {
	var request StartRetrievalRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = "invalid request body"
		ctx.JSON(http.StatusBadRequest, errorResponse)
		return
	}

	if err := request.Validate(); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("validation failed: %v", err.Error())
		ctx.JSON(http.StatusBadRequest, errorResponse)
		return
	}

	job, err := handler.retrievalService.Start(ctx, request.ToRetrievalRequest())
	if err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("could not start retrieval: %v", err.Error())
		ctx.JSON(http.StatusBadRequest, errorResponse)
		return
	}

	ctx.JSON(http.StatusAccepted, newRetrievalJobResponse(job))
}

// List returns every known retrieval job, most recent first
func (handler *retrievalHandler) List(ctx *gin.Context) {
	jobs := handler.retrievalService.List()

	listResponse := []RetrievalJobResponse{}
	for _, job := range jobs {
		listResponse = append(listResponse, newRetrievalJobResponse(job))
	}
	ctx.JSON(http.StatusOK, listResponse)
}

// GetByID returns the current snapshot of one retrieval job
func (handler *retrievalHandler) GetByID(ctx *gin.Context) {
	jobID := ctx.Param("id")

	job, err := handler.retrievalService.Status(jobID)
	if err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("retrieval job with id %s not found", jobID)
		ctx.JSON(http.StatusNotFound, errorResponse)
		return
	}

	ctx.JSON(http.StatusOK, newRetrievalJobResponse(job))
}

// Cancel stops a running retrieval job; already indexed instances stay
func (handler *retrievalHandler) Cancel(ctx *gin.Context) {
	jobID := ctx.Param("id")

	if err := handler.retrievalService.Cancel(jobID); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("retrieval job with id %s not found", jobID)
		ctx.JSON(http.StatusNotFound, errorResponse)
		return
	}

	var infoResponse InfoResponse
	infoResponse.Message = fmt.Sprintf("canceling retrieval job with id %s", jobID)
	ctx.JSON(http.StatusAccepted, infoResponse)
}
