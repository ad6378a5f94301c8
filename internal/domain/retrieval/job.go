package retrieval

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/validators"
)

// Mode selects what happens with a series after download and indexing.
type Mode string

// Retrieval modes
const (
	// ModeIndex downloads the series and indexes it into the local database.
	ModeIndex Mode = "Index"
	// ModeLoad additionally assembles the series into a volume and registers
	// it in the scene registry.
	ModeLoad Mode = "Load"
)

// Status of a retrieval job or of one of its items.
type Status string

// Job states. PartiallyCompleted means at least one series succeeded and at
// least one failed; Failed is reserved for jobs where nothing succeeded.
const (
	StatusPending            Status = "Pending"
	StatusRunning            Status = "Running"
	StatusCompleted          Status = "Completed"
	StatusPartiallyCompleted Status = "PartiallyCompleted"
	StatusFailed             Status = "Failed"
	StatusCanceled           Status = "Canceled"
)

// Terminal reports whether the status is a job end state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusPartiallyCompleted, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// Item is one study/series pair queued for retrieval.
type Item struct {
	StudyInstanceUID  string `validate:"required,dicomuid"`
	SeriesInstanceUID string `validate:"required,dicomuid"`
}

// Request starts a retrieval job.
type Request struct {
	ServerURL string `validate:"required,url"`
	Items     []Item `validate:"required,min=1,dive"`
	Mode      Mode   `validate:"required,oneof=Index Load"`
}

// Validate for validating Request struct
func (r *Request) Validate() error {
	validate := validator.New()

	if err := validators.RegisterDicomValidators(validate); err != nil {
		return fmt.Errorf("failed to register custom validator: %w", err)
	}

	err := validate.Struct(r)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var messages []string
			for _, fieldErr := range validationErrors {
				messages = append(messages, fmt.Sprintf("Field: %s, Tag: %s", fieldErr.Field(), fieldErr.Tag()))
			}
			return fmt.Errorf("validation failed: %v", messages)
		}
		return fmt.Errorf("validation error: %w", err)
	}

	return nil
}

// ItemProgress tracks the retrieval of one series within a job.
type ItemProgress struct {
	Item
	Status           Status
	InstancesTotal   int
	InstancesDone    int
	InstancesSkipped int
	BytesDownloaded  int64
	VolumeID         string
	Error            string
}

// Job is one retrieval run. The service hands out copies; only the worker
// goroutine mutates the registered instance.
type Job struct {
	ID         string
	ServerURL  string
	Mode       Mode
	Status     Status
	Items      []*ItemProgress
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
}

// Totals sums the per-item progress counters.
func (j *Job) Totals() (done, total int, bytes int64) {
	for _, item := range j.Items {
		done += item.InstancesDone + item.InstancesSkipped
		total += item.InstancesTotal
		bytes += item.BytesDownloaded
	}
	return done, total, bytes
}

// LoadedVolumeIDs lists the volumes registered by a Load mode job.
func (j *Job) LoadedVolumeIDs() []string {
	var ids []string
	for _, item := range j.Items {
		if item.VolumeID != "" {
			ids = append(ids, item.VolumeID)
		}
	}
	return ids
}

// Clone returns a deep copy safe to hand to observers.
func (j *Job) Clone() *Job {
	copied := *j
	copied.Items = make([]*ItemProgress, len(j.Items))
	for i, item := range j.Items {
		itemCopy := *item
		copied.Items[i] = &itemCopy
	}
	return &copied
}
