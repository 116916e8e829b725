package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"q7z/internal/archiver"
	"q7z/internal/events"
	"q7z/internal/extract"
	"q7z/internal/history"
	"q7z/internal/logging"
	"q7z/internal/notifications"
)

const defaultQueueSize = 16

// JobRunner executes one extraction.
type JobRunner interface {
	Run(ctx context.Context, jobID string, req extract.Request) (archiver.Result, error)
}

// Recorder persists job lifecycle changes.
type Recorder interface {
	Begin(ctx context.Context, jobID string, req extract.Request) error
	Finish(ctx context.Context, jobID string, out history.Outcome) error
}

// Job is one queued extraction.
type Job struct {
	ID       string
	Request  extract.Request
	Source   string
	Received time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRecorder records every job, typically in a history.Store.
func WithRecorder(rec Recorder) DispatcherOption {
	return func(d *Dispatcher) {
		d.recorder = rec
	}
}

// WithNotifier sends completion and failure notifications.
func WithNotifier(svc notifications.Service) DispatcherOption {
	return func(d *Dispatcher) {
		if svc != nil {
			d.notifier = svc
		}
	}
}

// WithQueueSize sets how many jobs may wait behind the running one.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// Dispatcher runs extraction jobs one at a time in arrival order.
type Dispatcher struct {
	runner    JobRunner
	sink      events.Sink
	recorder  Recorder
	notifier  notifications.Service
	logger    *slog.Logger
	queueSize int
	queue     chan Job

	completed atomic.Int64
	failed    atomic.Int64
}

// NewDispatcher returns a dispatcher feeding runner. A nil sink discards events.
func NewDispatcher(runner JobRunner, sink events.Sink, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if sink == nil {
		sink = events.SinkFunc(func(events.Event) {})
	}
	d := &Dispatcher{
		runner:    runner,
		sink:      sink,
		notifier:  notifications.NewService(nil),
		logger:    logging.NewComponentLogger(logger, "dispatcher"),
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = make(chan Job, d.queueSize)
	return d
}

// Enqueue queues req and returns its job ID. It blocks while the queue is
// full, so only the calling connection waits.
func (d *Dispatcher) Enqueue(ctx context.Context, req extract.Request, source string) (string, error) {
	job := Job{ID: uuid.NewString(), Request: req, Source: source, Received: time.Now()}
	select {
	case d.queue <- job:
	case <-ctx.Done():
		return "", fmt.Errorf("enqueue %s: %w", req.Input, ctx.Err())
	}
	d.logger.Info("job queued",
		logging.String(logging.FieldEventType, "job_queued"),
		logging.String(logging.FieldJobID, job.ID),
		logging.String("source", source),
		logging.String("input", req.Input),
		logging.Int("queued", len(d.queue)),
	)
	return job.ID, nil
}

// Run processes jobs until ctx is cancelled. A job that is running when ctx
// ends is cancelled with it; queued jobs are dropped.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := len(d.queue); n > 0 {
				logging.WarnWithContext(d.logger, "shutting down with queued jobs", "jobs_dropped",
					logging.Int("queued", n),
					logging.String(logging.FieldImpact, "queued extractions were not run"),
					logging.String(logging.FieldErrorHint, "forward the requests again after restarting"),
				)
			}
			return
		case job := <-d.queue:
			d.process(ctx, job)
		}
	}
}

// Stats reports how many jobs completed and failed.
func (d *Dispatcher) Stats() (completed, failed int64) {
	return d.completed.Load(), d.failed.Load()
}

func (d *Dispatcher) process(ctx context.Context, job Job) {
	ctx = logging.WithJobID(ctx, job.ID)
	logger := logging.WithContext(ctx, d.logger)
	d.emit(job.ID, events.NameStarted, job.Request.Input)

	if d.recorder != nil {
		if err := d.recorder.Begin(ctx, job.ID, job.Request); err != nil {
			logging.WarnWithContext(logger, "job history unavailable", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "this job will be missing from q7z history"),
			)
		}
	}

	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_started"),
		logging.Duration("waited", time.Since(job.Received)),
	)
	result, err := d.runner.Run(ctx, job.ID, job.Request)

	if d.recorder != nil {
		outcome := history.Outcome{
			Err:         err,
			ExitCode:    exitCode(err),
			LastPercent: result.LastPercent,
			Files:       result.Files,
		}
		// Record the outcome even when shutdown cancelled the job.
		if recErr := d.recorder.Finish(context.WithoutCancel(ctx), job.ID, outcome); recErr != nil {
			logging.WarnWithContext(logger, "job history update failed", "history_write_failed",
				logging.Error(recErr),
				logging.String(logging.FieldImpact, "q7z history shows this job as running"),
			)
		}
	}

	if err != nil {
		d.failed.Add(1)
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.Error(err),
			logging.String("input", job.Request.Input),
			logging.String(logging.FieldErrorHint, failureHint(err)),
			logging.String(logging.FieldImpact, "the archive was not fully extracted"),
		)
		d.notify(logger, func(nctx context.Context) error {
			return d.notifier.NotifyJobFailed(nctx, job.Request, err)
		})
		d.emit(job.ID, events.NameFinished, err.Error())
		return
	}

	d.completed.Add(1)
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_completed"),
		logging.Duration("elapsed", result.Duration),
		logging.Int("files", result.Files),
	)
	d.notify(logger, func(nctx context.Context) error {
		return d.notifier.NotifyJobCompleted(nctx, job.Request, result.Duration)
	})
	d.emit(job.ID, events.NameFinished, events.FinishedOK)
}

func (d *Dispatcher) emit(jobID, name, payload string) {
	d.sink.Emit(events.Event{Time: time.Now(), Name: name, JobID: jobID, Payload: payload})
}

func (d *Dispatcher) notify(logger *slog.Logger, send func(context.Context) error) {
	if err := send(context.Background()); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no push notification for this job"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
		)
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return archiver.ExitCode(err)
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, archiver.ErrSpawn):
		return "install 7-Zip or set archiver.binary / Q7Z_ARCHIVER to its path"
	case errors.Is(err, archiver.ErrOutputNotWritable):
		return "choose an output directory you can write to"
	case errors.Is(err, archiver.ErrArchiverExit):
		return "see the archiver stderr lines logged for this job"
	case errors.Is(err, context.Canceled):
		return "the Primary was shut down while extracting; run the request again"
	default:
		return "check logs for details"
	}
}
