// Package jobs runs catalog imports asynchronously.
//
// The runner is the queue collaborator around the import engine: it defers
// execution of an import, bounds how many run at once, and reports completion
// or failure through the logger. Callers poll Lookup for outcomes; the engine
// itself stays synchronous.
package jobs

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/catalogkit/importer/internal/importer"
)

// Status is the lifecycle state of one queued import.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is one queued import and its outcome.
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Path       string         `json:"-"`
	Status     Status         `json:"status"`
	Stats      importer.Stats `json:"stats"`
	Error      string         `json:"error,omitempty"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
	FinishedAt time.Time      `json:"finished_at,omitzero"`
}

// ImportFunc runs one import. (*importer.Engine).Import satisfies it.
type ImportFunc func(ctx context.Context, path string) (importer.Stats, error)

// Runner executes import jobs in the background with bounded concurrency.
type Runner struct {
	run     ImportFunc
	sem     *semaphore.Weighted
	timeout time.Duration
	log     *slog.Logger

	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
	wg   sync.WaitGroup
}

// NewRunner creates a runner that executes at most maxConcurrent imports at
// once. A timeout of zero means no per-job deadline.
func NewRunner(run ImportFunc, maxConcurrent int64, timeout time.Duration, log *slog.Logger) *Runner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		run:     run,
		sem:     semaphore.NewWeighted(maxConcurrent),
		timeout: timeout,
		log:     log,
		jobs:    make(map[uuid.UUID]*Job),
	}
}

// Enqueue registers an import of path and starts it in the background.
// When removeWhenDone is set the file is deleted after the job finishes,
// which is how spooled uploads are cleaned up.
func (r *Runner) Enqueue(ctx context.Context, path string, removeWhenDone bool) uuid.UUID {
	job := &Job{
		ID:         uuid.New(),
		Path:       path,
		Status:     StatusQueued,
		EnqueuedAt: time.Now(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	r.log.Info("import queued", "job_id", job.ID, "path", path)

	r.wg.Add(1)
	go r.execute(ctx, job.ID, path, removeWhenDone)

	return job.ID
}

// Lookup returns a copy of the job's current state.
func (r *Runner) Lookup(id uuid.UUID) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Wait blocks until every enqueued job has finished or ctx expires.
// Used during graceful shutdown.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) execute(ctx context.Context, id uuid.UUID, path string, removeWhenDone bool) {
	defer r.wg.Done()
	if removeWhenDone {
		defer os.Remove(path)
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.finish(id, importer.Stats{}, err)
		return
	}
	defer r.sem.Release(1)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.setRunning(id)
	r.log.Info("starting queued import", "job_id", id, "path", path)

	stats, err := r.run(ctx, path)
	r.finish(id, stats, err)
}

func (r *Runner) setRunning(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Status = StatusRunning
	}
}

func (r *Runner) finish(id uuid.UUID, stats importer.Stats, err error) {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if ok {
		job.FinishedAt = time.Now()
		if err != nil {
			job.Status = StatusFailed
			job.Error = err.Error()
		} else {
			job.Status = StatusSucceeded
			job.Stats = stats
		}
	}
	r.mu.Unlock()

	if err != nil {
		r.log.Error("queued import failed", "job_id", id, "error", err)
		return
	}

	r.log.Info("queued import completed",
		"job_id", id,
		"products_imported", stats.ProductsImported,
		"variants_imported", stats.VariantsImported,
	)
	if stats.CorruptedRows > 0 {
		r.log.Warn("corrupted rows skipped", "job_id", id, "corrupted_rows", stats.CorruptedRows)
	}
}
