// Package metrics defines the Prometheus collectors exposed by the REST API
// and incremented from the DICOMweb connector and the retrieval service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DicomwebRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dicomweb_browser", Name: "dicomweb_requests_total", Help: "Number of DICOMweb requests by operation and HTTP status code."},
		[]string{"operation", "code"},
	)
	DicomwebRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "dicomweb_browser", Name: "dicomweb_request_seconds", Help: "DICOMweb request latency by operation.", Buckets: prometheus.DefBuckets},
		[]string{"operation"},
	)
	InstancesDownloaded = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "dicomweb_browser", Name: "instances_downloaded_total", Help: "Number of DICOM instances downloaded."},
	)
	DownloadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "dicomweb_browser", Name: "download_bytes_total", Help: "Total bytes of DICOM instance payloads downloaded."},
	)
	RetrievalJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dicomweb_browser", Name: "retrieval_jobs_total", Help: "Number of finished retrieval jobs by terminal status."},
		[]string{"status"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(DicomwebRequests)
	reg.MustRegister(DicomwebRequestSeconds)
	reg.MustRegister(InstancesDownloaded)
	reg.MustRegister(DownloadBytes)
	reg.MustRegister(RetrievalJobs)
}
