package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Target is one crawl of a batch.
type Target struct {
	// RootURL is the URL to crawl.
	RootURL string

	// Name is the artifact or destination name.
	Name string
}

// BatchProcessor runs independent crawls concurrently.
type BatchProcessor struct {
	// factory creates the pipeline for each target. Each target gets a
	// fresh pipeline so sinks are never shared.
	factory func(Target) (*Pipeline, *Job, error)

	// concurrency is the maximum number of concurrent crawls.
	concurrency int

	logger *slog.Logger

	// results stores finished jobs in target order.
	results []*Job
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor. factory builds the pipeline
// and job for a target.
func NewBatchProcessor(factory func(Target) (*Pipeline, *Job, error), opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: 4,
		results:     make([]*Job, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls every target and returns the jobs in target order,
// including failed ones. A failed crawl does not stop the others; the
// returned error is non-nil only when the batch was cancelled, in which
// case targets that never started have a nil job.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []Target) ([]*Job, error) {
	bp.logger.Info("starting batch",
		"targets", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	bp.results = make([]*Job, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			p, job, err := bp.factory(target)
			if err != nil {
				job = &Job{RootURL: target.RootURL, Name: target.Name, Err: err}
			} else {
				_ = p.Execute(ctx, job) //nolint:errcheck // the error is stored in the job
			}

			bp.mu.Lock()
			bp.results[i] = job
			bp.mu.Unlock()

			if job.Err != nil {
				bp.logger.Warn("crawl failed",
					"root", target.RootURL,
					"error", job.Err,
				)
				return nil
			}

			bp.logger.Info("crawl finished",
				"root", target.RootURL,
				"index", i+1,
				"total", len(targets),
			)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch complete",
		"targets", len(targets),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}
