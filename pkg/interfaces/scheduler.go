package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound reports lookups that matched no stored job.
var ErrJobNotFound = errors.New("scheduler: job not found")

// JobStatus is the lifecycle state of a scheduled job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCanceled  JobStatus = "canceled"
	JobStatusFailed    JobStatus = "failed"
)

// JobSpec describes work to run later, such as republishing the site when
// a future-dated post comes due.
type JobSpec struct {
	// Key makes enqueueing idempotent: a new spec with an existing key
	// replaces the stored job instead of adding a second one.
	Key string
	// Type names the action for the worker, e.g. posts.publish.
	Type string
	// RunAt is the earliest instant the job may execute.
	RunAt time.Time
	// Payload carries whatever the worker needs to perform the action.
	Payload map[string]any
	// MaxAttempts caps retries after failures. Zero means retry forever.
	MaxAttempts int
}

// Job is a stored JobSpec plus the bookkeeping the scheduler maintains.
type Job struct {
	JobSpec
	ID        string
	Attempt   int
	LastError string
	Status    JobStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Scheduler stores and serves due jobs. The worker polls ListDue and
// reports outcomes back through MarkDone and MarkFailed.
type Scheduler interface {
	Enqueue(ctx context.Context, spec JobSpec) (*Job, error)
	Cancel(ctx context.Context, id string) error
	CancelByKey(ctx context.Context, key string) error
	Get(ctx context.Context, id string) (*Job, error)
	GetByKey(ctx context.Context, key string) (*Job, error)
	ListDue(ctx context.Context, until time.Time, limit int) ([]*Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, err error) error
}
