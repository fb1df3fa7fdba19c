package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/financeiro/internal/importer"
	"github.com/dvloznov/financeiro/internal/llm"
)

var (
	ErrJobNotFound = errors.New("jobs: job not found")
	ErrQueueClosed = errors.New("jobs: queue is closed")
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeImport applies a batch of spreadsheet rows to the ledger.
	JobTypeImport JobType = "import"
	// JobTypeStatement parses a statement document into rows, then imports them.
	JobTypeStatement JobType = "statement"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// ImportJob carries parsed spreadsheet rows, or a statement document still
// to be parsed, until they are applied.
type ImportJob struct {
	JobID string  `json:"jobId"`
	Type  JobType `json:"type,omitempty"`

	// Source is the uploaded file name, for display only.
	Source string `json:"source,omitempty"`

	Rows []importer.Row `json:"-"`

	// Document is cleared once it has been parsed into Rows.
	Document *llm.Image `json:"-"`
	// AccountID, when set, books every statement row to that account.
	AccountID string `json:"accountId,omitempty"`

	// ParseErrors are rows the reader rejected, keyed by sheet row.
	ParseErrors map[int]string `json:"parseErrors,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`

	// Report is set once the rows were applied.
	Report *importer.Report `json:"report,omitempty"`

	RetryCount int `json:"retryCount"`
	MaxRetries int `json:"maxRetries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ImportJob) GetID() string        { return j.JobID }
func (j *ImportJob) GetStatus() JobStatus { return j.Status }

func (j *ImportJob) GetType() JobType {
	if j.Type == "" {
		return JobTypeImport
	}
	return j.Type
}

// Publisher enqueues jobs.
type Publisher interface {
	PublishImport(ctx context.Context, job *ImportJob) error
	Close() error
}

// Consumer runs a handler for every published job.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error is retried unless it is
// marked with Permanent.
type JobHandler func(ctx context.Context, job Job) error

// JobStore keeps job status across the job's lifetime.
type JobStore interface {
	SaveJob(ctx context.Context, job *ImportJob) error
	GetJob(ctx context.Context, jobID string) (*ImportJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ImportJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Status JobStatus
	Limit  int
	Offset int
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
