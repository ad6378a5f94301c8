package dicom

import (
	"context"
	"time"
)

// BrowseService defines methods for browsing a remote DICOMweb server.
type BrowseService interface {
	// Studies lists the studies of a server, served from the response cache
	// when the request allows it, and filtered by the request substring.
	Studies(ctx context.Context, request *BrowseStudiesRequest) (*BrowseStudiesResult, error)

	// Series lists the series of one remote study and marks each series
	// that is already fully present in the local index as stored.
	Series(ctx context.Context, request *BrowseSeriesRequest) (*BrowseSeriesResult, error)

	// DeleteRemoteSeries deletes a series on the remote server and
	// invalidates the cached responses it appeared in.
	DeleteRemoteSeries(ctx context.Context, serverURL, studyUID, seriesUID string) error

	// ClearCache drops every cached server response.
	ClearCache() error
}

// LocalIndexService defines methods for browsing and editing the local index.
type LocalIndexService interface {
	// ListStudies lists indexed studies considering a query filter when set.
	ListStudies(ctx context.Context, query *StudyQuery) ([]*Study, error)

	// ListSeries lists indexed series considering a query filter when set.
	ListSeries(ctx context.Context, query *SeriesQuery) ([]*Series, error)

	// ListInstances lists indexed instances considering a query filter when set.
	ListInstances(ctx context.Context, query *InstanceQuery) ([]*Instance, error)

	// InstanceFile returns the instance row and the stored file content.
	InstanceFile(ctx context.Context, sopInstanceUID string) (*Instance, []byte, error)

	// DeleteSeries removes a series from the local index: instance rows and
	// stored files, volumes loaded from it, the series row, and the study
	// row when its last series goes.
	DeleteSeries(ctx context.Context, seriesInstanceUID string) error

	// ListVolumes lists the scene registry.
	ListVolumes(ctx context.Context, query *VolumeQuery) ([]*Volume, error)

	// GetVolume retrieves one volume by ID.
	GetVolume(ctx context.Context, volumeID string) (*Volume, error)

	// DeleteVolume removes a volume from the scene registry.
	DeleteVolume(ctx context.Context, volumeID string) error
}

// LoadService defines methods for loading indexed series into the scene registry.
type LoadService interface {
	// LoadSeries assembles an already indexed series into a volume and
	// registers it. It returns the registered volume.
	LoadSeries(ctx context.Context, seriesInstanceUID string) (*Volume, error)
}

// StudyRepository defines the interface for study index operations
type StudyRepository interface {
	// Upsert creates the study row or updates it when it already exists
	Upsert(ctx context.Context, study *Study) error
	// List lists studies in the index with optional filter
	List(ctx context.Context, query *StudyQuery) ([]*Study, error)
	// GetByUID retrieves a study by StudyInstanceUID
	GetByUID(ctx context.Context, studyInstanceUID string) (*Study, error)
	// DeleteByUID deletes a study by StudyInstanceUID
	DeleteByUID(ctx context.Context, studyInstanceUID string) error
}

// SeriesRepository defines the interface for series index operations
type SeriesRepository interface {
	// Upsert creates the series row or updates it when it already exists
	Upsert(ctx context.Context, series *Series) error
	// List lists series in the index with optional filter
	List(ctx context.Context, query *SeriesQuery) ([]*Series, error)
	// GetByUID retrieves a series by SeriesInstanceUID
	GetByUID(ctx context.Context, seriesInstanceUID string) (*Series, error)
	// CountByStudy counts the series rows of a study
	CountByStudy(ctx context.Context, studyInstanceUID string) (int64, error)
	// DeleteByUID deletes a series by SeriesInstanceUID
	DeleteByUID(ctx context.Context, seriesInstanceUID string) error
}

// InstanceRepository defines the interface for instance index operations
type InstanceRepository interface {
	// Upsert creates the instance row or updates it when it already exists
	Upsert(ctx context.Context, instance *Instance) error
	// List lists instances in the index with optional filter
	List(ctx context.Context, query *InstanceQuery) ([]*Instance, error)
	// GetBySOPInstanceUID retrieves an instance by SOPInstanceUID
	GetBySOPInstanceUID(ctx context.Context, sopInstanceUID string) (*Instance, error)
	// ExistsBySOPInstanceUID reports whether the SOP instance is indexed
	ExistsBySOPInstanceUID(ctx context.Context, sopInstanceUID string) (bool, error)
	// CountBySeries counts the indexed instances of a series
	CountBySeries(ctx context.Context, seriesInstanceUID string) (int64, error)
	// DeleteBySeries deletes every instance row of a series
	DeleteBySeries(ctx context.Context, seriesInstanceUID string) error
}

// VolumeRepository defines the interface for scene registry operations
type VolumeRepository interface {
	// Create adds a new volume to the registry
	Create(ctx context.Context, volume *Volume) error
	// List lists registered volumes with optional filter
	List(ctx context.Context, query *VolumeQuery) ([]*Volume, error)
	// GetByID retrieves a volume by ID
	GetByID(ctx context.Context, volumeID string) (*Volume, error)
	// DeleteByID deletes a volume by ID
	DeleteByID(ctx context.Context, volumeID string) error
	// DeleteBySeries deletes every volume loaded from a series
	DeleteBySeries(ctx context.Context, seriesInstanceUID string) error
}

// WebConnector is an interface for talking to a DICOMweb server
type WebConnector interface {
	// SearchStudies runs a paged QIDO-RS study search against the server
	// and returns every study it reports.
	SearchStudies(ctx context.Context, serverURL string) ([]*RemoteStudy, error)

	// SearchSeries runs a QIDO-RS series search within one study.
	SearchSeries(ctx context.Context, serverURL, studyUID string) ([]*RemoteSeries, error)

	// SearchInstances runs a QIDO-RS instance search within one series.
	SearchInstances(ctx context.Context, serverURL, studyUID, seriesUID string) ([]*RemoteInstanceRef, error)

	// RetrieveInstance fetches one instance via WADO-RS and returns the
	// DICOM file bytes.
	RetrieveInstance(ctx context.Context, serverURL, studyUID, seriesUID, sopUID string) ([]byte, error)

	// DeleteSeries deletes a series on the server (non-standard extension
	// supported by dcm4chee and Kheops class servers).
	DeleteSeries(ctx context.Context, serverURL, studyUID, seriesUID string) error
}

// ResponseCache is an interface for the on-disk server response cache.
// Lookups report the time the payload was originally retrieved; corrupt
// entries are treated as misses.
type ResponseCache interface {
	GetStudies(serverURL string) ([]*RemoteStudy, time.Time, bool)
	PutStudies(serverURL string, studies []*RemoteStudy) error
	GetSeries(serverURL, studyUID string) ([]*RemoteSeries, time.Time, bool)
	PutSeries(serverURL, studyUID string, series []*RemoteSeries) error
	InvalidateStudies(serverURL string) error
	InvalidateSeries(serverURL, studyUID string) error
	Clear() error
}

// FileIndexer imports downloaded DICOM files into the local index.
type FileIndexer interface {
	// ImportDirectory walks dir, copies every parseable DICOM file into the
	// managed store and upserts the index rows. Already indexed instances
	// are skipped. The directory is removed after a fully successful import.
	ImportDirectory(ctx context.Context, dir string) (*ImportResult, error)
}

// ImportResult summarizes one ImportDirectory run.
type ImportResult struct {
	Indexed int
	Skipped int
	Failed  int
}

// VolumeAssembler builds a volume from the indexed instances of one series.
type VolumeAssembler interface {
	// Assemble orders the instances, validates their geometric consistency
	// and derives the volume properties. It does not register the volume.
	Assemble(ctx context.Context, series *Series, instances []*Instance) (*Volume, error)
}
