package app

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/retrieval"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/metrics"
)

const defaultDownloadParallelism = 1

// retrievalService implements the retrieval Service interface. Jobs live in
// an in-memory registry; one worker goroutine per job processes the selected
// series sequentially and fans out instance downloads within a series.
type retrievalService struct {
	connector    dicom.WebConnector
	indexer      dicom.FileIndexer
	loader       dicom.LoadService
	instanceRepo dicom.InstanceRepository
	storage      *config.StorageSettings
	parallelism  int
	logger       logger.Logger

	mu    sync.Mutex
	jobs  map[string]*jobEntry
	order []string
}

type jobEntry struct {
	job    *retrieval.Job
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRetrievalService creates a new instance of retrievalService
func NewRetrievalService(
	connector dicom.WebConnector,
	indexer dicom.FileIndexer,
	loader dicom.LoadService,
	instanceRepo dicom.InstanceRepository,
	storage *config.StorageSettings,
	settings *config.RemoteSettings,
	logger logger.Logger,
) (retrieval.Service, error) {
	parallelism := defaultDownloadParallelism
	if settings != nil && settings.DownloadParallelism > 0 {
		parallelism = settings.DownloadParallelism
	}

	return &retrievalService{
		connector:    connector,
		indexer:      indexer,
		loader:       loader,
		instanceRepo: instanceRepo,
		storage:      storage,
		parallelism:  parallelism,
		logger:       logger,
		jobs:         map[string]*jobEntry{},
	}, nil
}

// Start validates the request, registers a job and begins processing it in
// the background.
func (s *retrievalService) Start(ctx context.Context, request *retrieval.Request) (*retrieval.Job, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	job := &retrieval.Job{
		ID:        uuid.New().String(),
		ServerURL: request.ServerURL,
		Mode:      request.Mode,
		Status:    retrieval.StatusPending,
		StartedAt: time.Now().UTC(),
	}
	for _, item := range request.Items {
		job.Items = append(job.Items, &retrieval.ItemProgress{Item: item, Status: retrieval.StatusPending})
	}

	// The job outlives the request context; cancellation goes through Cancel
	jobCtx, cancel := context.WithCancel(context.Background())
	entry := &jobEntry{job: job, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.jobs[job.ID] = entry
	s.order = append(s.order, job.ID)
	snapshot := job.Clone()
	s.mu.Unlock()

	s.logger.Info("Started retrieval job ", job.ID, " with ", len(job.Items), " series")
	go s.run(jobCtx, entry)

	return snapshot, nil
}

// Status returns a snapshot of the job with the given ID
func (s *retrievalService) Status(jobID string) (*retrieval.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("retrieval job with ID %s not found", jobID)
	}
	return entry.job.Clone(), nil
}

// Wait blocks until the job reaches a terminal status or ctx is done
func (s *retrievalService) Wait(ctx context.Context, jobID string) (*retrieval.Job, error) {
	s.mu.Lock()
	entry, ok := s.jobs[jobID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("retrieval job with ID %s not found", jobID)
	}

	select {
	case <-entry.done:
		return s.Status(jobID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel stops a running job between instance fetches
func (s *retrievalService) Cancel(jobID string) error {
	s.mu.Lock()
	entry, ok := s.jobs[jobID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("retrieval job with ID %s not found", jobID)
	}

	entry.cancel()
	return nil
}

// List returns snapshots of every known job, most recent first
func (s *retrievalService) List() []*retrieval.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]*retrieval.Job, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		jobs = append(jobs, s.jobs[s.order[i]].job.Clone())
	}
	return jobs
}

func (s *retrievalService) run(ctx context.Context, entry *jobEntry) {
	defer close(entry.done)
	defer entry.cancel()

	s.setJobStatus(entry, retrieval.StatusRunning)

	succeeded, failed := 0, 0
	for _, item := range entry.job.Items {
		if ctx.Err() != nil {
			s.setItemStatus(item, retrieval.StatusCanceled, "")
			continue
		}

		s.setItemStatus(item, retrieval.StatusRunning, "")
		if err := s.retrieveSeries(ctx, entry, item); err != nil {
			if ctx.Err() != nil {
				s.setItemStatus(item, retrieval.StatusCanceled, "")
				continue
			}
			failed++
			s.setItemStatus(item, retrieval.StatusFailed, err.Error())
			s.logger.Error("Retrieval of series ", item.SeriesInstanceUID, " failed: ", err.Error())
			continue
		}
		succeeded++
		s.setItemStatus(item, retrieval.StatusCompleted, "")
	}

	status := retrieval.StatusCompleted
	switch {
	case ctx.Err() != nil:
		status = retrieval.StatusCanceled
	case failed > 0 && succeeded > 0:
		status = retrieval.StatusPartiallyCompleted
	case failed > 0:
		status = retrieval.StatusFailed
	}

	s.mu.Lock()
	entry.job.Status = status
	entry.job.FinishedAt = time.Now().UTC()
	s.mu.Unlock()

	metrics.RetrievalJobs.WithLabelValues(string(status)).Inc()
	s.logger.Info("Retrieval job ", entry.job.ID, " finished with status ", string(status))
}

// retrieveSeries downloads the instances of one series into the staging area,
// indexes them, and in Load mode registers the assembled volume.
func (s *retrievalService) retrieveSeries(ctx context.Context, entry *jobEntry, item *retrieval.ItemProgress) error {
	job := entry.job

	refs, err := s.connector.SearchInstances(ctx, job.ServerURL, item.StudyInstanceUID, item.SeriesInstanceUID)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	s.mu.Lock()
	item.InstancesTotal = len(refs)
	s.mu.Unlock()

	stagingDir := filepath.Join(s.storage.StagingDir(), job.ID, hashedName(item.SeriesInstanceUID))
	if err := os.MkdirAll(stagingDir, 0700); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.parallelism)
	for _, ref := range refs {
		sopUID := ref.SOPInstanceUID
		group.Go(func() error {
			return s.retrieveInstance(groupCtx, job, item, sopUID, stagingDir)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	result, err := s.indexer.ImportDirectory(ctx, stagingDir)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d downloaded files of series %s could not be indexed", result.Failed, item.SeriesInstanceUID)
	}

	if job.Mode == retrieval.ModeLoad {
		volume, err := s.loader.LoadSeries(ctx, item.SeriesInstanceUID)
		if err != nil {
			return fmt.Errorf("%w", err)
		}
		s.mu.Lock()
		item.VolumeID = volume.ID
		s.mu.Unlock()
	}

	return nil
}

// retrieveInstance fetches one instance unless it is already indexed or
// already staged from an interrupted run.
func (s *retrievalService) retrieveInstance(ctx context.Context, job *retrieval.Job, item *retrieval.ItemProgress, sopUID, stagingDir string) error {
	skip, err := s.instanceRepo.ExistsBySOPInstanceUID(ctx, sopUID)
	if err != nil {
		return err
	}

	stagedPath := filepath.Join(stagingDir, hashedName(sopUID)+".dcm")
	if !skip {
		if _, err := os.Stat(stagedPath); err == nil {
			skip = true
		}
	}
	if skip {
		s.mu.Lock()
		item.InstancesSkipped++
		s.mu.Unlock()
		return nil
	}

	data, err := s.connector.RetrieveInstance(ctx, job.ServerURL, item.StudyInstanceUID, item.SeriesInstanceUID, sopUID)
	if err != nil {
		return fmt.Errorf("failed to retrieve instance %s: %w", sopUID, err)
	}

	if err := os.WriteFile(stagedPath, data, 0600); err != nil {
		return fmt.Errorf("failed to stage instance %s: %w", sopUID, err)
	}

	s.mu.Lock()
	item.InstancesDone++
	item.BytesDownloaded += int64(len(data))
	s.mu.Unlock()

	return nil
}

func (s *retrievalService) setJobStatus(entry *jobEntry, status retrieval.Status) {
	s.mu.Lock()
	entry.job.Status = status
	s.mu.Unlock()
}

func (s *retrievalService) setItemStatus(item *retrieval.ItemProgress, status retrieval.Status, message string) {
	s.mu.Lock()
	item.Status = status
	item.Error = message
	s.mu.Unlock()
}

// hashedName keeps staged paths short regardless of UID length.
func hashedName(uid string) string {
	// #nosec G401 -- md5 only names staging files, it has no security use
	sum := md5.Sum([]byte(uid))
	return hex.EncodeToString(sum[:])
}
