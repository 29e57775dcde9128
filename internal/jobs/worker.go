// Package jobs drains the scheduler queue: publishing future-dated posts
// when their date arrives and kicking off rebuilds afterwards.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/internal/scheduler"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// PublishIndex is the slice of the content index the worker needs to flip
// a post live.
type PublishIndex interface {
	MarkPublished(ctx context.Context, slug string, at time.Time) error
}

// RebuildFunc regenerates the site after publishes land.
type RebuildFunc func(ctx context.Context) error

// Worker processes due jobs in batches. Callers drive it from a ticker or
// invoke Process once after a build.
type Worker struct {
	scheduler interfaces.Scheduler
	index     PublishIndex
	rebuild   RebuildFunc
	logger    interfaces.Logger
	now       func() time.Time
	batchSize int
}

// Option customises the worker.
type Option func(*Worker)

// WithRebuild wires the regeneration hook invoked after publishes.
func WithRebuild(fn RebuildFunc) Option {
	return func(w *Worker) {
		w.rebuild = fn
	}
}

// WithLogger sets the worker logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock overrides the time source, used mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

// WithBatchSize caps how many jobs one Process pass claims.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// NewWorker constructs a publish worker over the scheduler and index.
func NewWorker(sched interfaces.Scheduler, index PublishIndex, opts ...Option) *Worker {
	w := &Worker{
		scheduler: sched,
		index:     index,
		logger:    logging.NoOp(),
		now:       time.Now,
		batchSize: 50,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Plan reconciles the queue with the loaded posts: every future-dated post
// gets a pending publish job keyed on its slug, and posts that left the
// future state drop theirs. Enqueue replaces by key, so re-planning after
// every load is safe.
func (w *Worker) Plan(ctx context.Context, posts []*interfaces.Post) (int, error) {
	if w.scheduler == nil {
		return 0, errors.New("jobs: scheduler is nil")
	}

	scheduled := 0
	for _, post := range posts {
		if post == nil || post.Slug == "" {
			continue
		}
		key := scheduler.PostPublishJobKey(post.Slug)
		if post.Status == interfaces.PostStatusFuture && !post.Date.IsZero() {
			if _, err := w.scheduler.Enqueue(ctx, interfaces.JobSpec{
				Key:   key,
				Type:  scheduler.JobTypePostPublish,
				RunAt: post.Date,
				Payload: map[string]any{
					"slug":        post.Slug,
					"source_path": post.SourcePath,
				},
			}); err != nil {
				return scheduled, fmt.Errorf("jobs: enqueue publish for %s: %w", post.Slug, err)
			}
			scheduled++
			continue
		}
		if err := w.scheduler.CancelByKey(ctx, key); err != nil && !errors.Is(err, interfaces.ErrJobNotFound) {
			return scheduled, fmt.Errorf("jobs: cancel stale job for %s: %w", post.Slug, err)
		}
	}

	w.logger.Debug("jobs.plan_completed", "scheduled", scheduled)
	return scheduled, nil
}

// Process claims one batch of due jobs and executes them. Failed jobs go
// back to the queue until their attempts run out.
func (w *Worker) Process(ctx context.Context) error {
	if w.scheduler == nil {
		return errors.New("jobs: scheduler is nil")
	}

	deadline := w.now()
	due, err := w.scheduler.ListDue(ctx, deadline, w.batchSize)
	if err != nil {
		return err
	}

	published := 0
	rebuilt := false
	for _, job := range due {
		if job == nil {
			continue
		}
		if err := w.handleJob(ctx, job, deadline); err != nil {
			w.logger.Warn("jobs.job_failed",
				"id", job.ID,
				"type", job.Type,
				"attempt", job.Attempt+1,
				"error", err,
			)
			_ = w.scheduler.MarkFailed(ctx, job.ID, err)
			continue
		}
		_ = w.scheduler.MarkDone(ctx, job.ID)
		switch job.Type {
		case scheduler.JobTypePostPublish:
			published++
		case scheduler.JobTypeSiteRebuild:
			rebuilt = true
		}
	}

	if published > 0 && !rebuilt && w.rebuild != nil {
		if err := w.rebuild(ctx); err != nil {
			w.logger.Error("jobs.rebuild_failed", "error", err)
			return fmt.Errorf("jobs: rebuild after publish: %w", err)
		}
		w.logger.Info("jobs.rebuild_completed", "published", published)
	}
	return nil
}

func (w *Worker) handleJob(ctx context.Context, job *interfaces.Job, now time.Time) error {
	switch job.Type {
	case scheduler.JobTypePostPublish:
		return w.processPostPublish(ctx, job, now)
	case scheduler.JobTypeSiteRebuild:
		if w.rebuild == nil {
			return errors.New("jobs: no rebuild hook configured")
		}
		return w.rebuild(ctx)
	default:
		return nil
	}
}

func (w *Worker) processPostPublish(ctx context.Context, job *interfaces.Job, now time.Time) error {
	if w.index == nil {
		return errors.New("jobs: publish index is nil")
	}
	slug, err := parseSlug(job.Payload)
	if err != nil {
		return err
	}

	publishedAt := job.RunAt
	if publishedAt.IsZero() {
		publishedAt = now
	}
	if err := w.index.MarkPublished(ctx, slug, publishedAt); err != nil {
		return err
	}

	w.logger.Info("jobs.post_published",
		"slug", slug,
		"published_at", publishedAt,
	)
	return nil
}

func parseSlug(payload map[string]any) (string, error) {
	if payload == nil {
		return "", errors.New("jobs: missing payload")
	}
	raw, ok := payload["slug"]
	if !ok {
		return "", errors.New("jobs: payload missing slug")
	}
	slug, ok := raw.(string)
	if !ok || slug == "" {
		return "", errors.New("jobs: invalid slug payload")
	}
	return slug, nil
}
