package retrieval

import (
	"context"
)

// Service runs download jobs against a DICOMweb server.
type Service interface {
	// Start validates the request, registers a job and begins processing it
	// in the background. The returned job is a snapshot taken at start.
	Start(ctx context.Context, request *Request) (*Job, error)

	// Status returns a snapshot of the job with the given ID.
	Status(jobID string) (*Job, error)

	// Wait blocks until the job reaches a terminal status or ctx is done,
	// then returns the final snapshot.
	Wait(ctx context.Context, jobID string) (*Job, error)

	// Cancel stops a running job between instance fetches. Instances that
	// were already downloaded stay indexed.
	Cancel(jobID string) error

	// List returns snapshots of every known job, most recent first.
	List() []*Job
}
