package v1

import (
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/retrieval"

	"github.com/gin-gonic/gin"
)

// Token-bucket budget for the routes that reach out to a remote DICOMweb
// server. Local index routes are not limited.
const (
	remoteRequestsPerSecond = 5
	remoteRequestBurst      = 10
)

// SetupRoutes sets up all the API routes for version 1.
func SetupRoutes(r *gin.Engine,
	browseService dicom.BrowseService,
	retrievalService retrieval.Service,
	localIndexService dicom.LocalIndexService) {

	v1 := r.Group(BasePath) // lookup in version file

	// Remote browse routes, rate limited per client
	remoteHandler := NewRemoteHandler(browseService)
	remote := v1.Group("/remote", RateLimitMiddleware(remoteRequestsPerSecond, remoteRequestBurst))
	remote.GET("/studies", remoteHandler.ListStudies)
	remote.GET("/studies/:studyUID/series", remoteHandler.ListSeries)
	remote.DELETE("/studies/:studyUID/series/:seriesUID", remoteHandler.DeleteSeries)

	// Retrieval job routes
	retrievalHandler := NewRetrievalHandler(retrievalService)
	v1.POST("/retrievals", retrievalHandler.Start)
	v1.GET("/retrievals", retrievalHandler.List)
	v1.GET("/retrievals/:id", retrievalHandler.GetByID)
	v1.DELETE("/retrievals/:id", retrievalHandler.Cancel)

	// Local index and scene registry routes
	databaseHandler := NewDatabaseHandler(localIndexService)
	v1.GET("/studies", databaseHandler.ListStudies)
	v1.GET("/studies/:studyUID/series", databaseHandler.ListSeries)
	v1.GET("/series/:seriesUID/instances", databaseHandler.ListInstances)
	v1.DELETE("/series/:seriesUID", databaseHandler.DeleteSeries)
	v1.GET("/instances/:sopUID/file", databaseHandler.DownloadInstanceFile)
	v1.GET("/volumes", databaseHandler.ListVolumes)
	v1.GET("/volumes/:id", databaseHandler.GetVolumeByID)
	v1.DELETE("/volumes/:id", databaseHandler.DeleteVolumeByID)
}
