package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/indextree/internal/database"
)

// Step is one stage of a crawl.
type Step interface {
	// Do executes the step. An error stops the pipeline.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// RunRecorder receives a log entry for every executed job.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *database.CrawlRun) error
}

// Pipeline executes steps in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// recorder, when set, logs every run including failed ones.
	recorder RunRecorder

	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithRecorder records each run after it finishes.
func WithRecorder(r RunRecorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in sequence and stops at the first failure,
// which is returned and stored in job.Err.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	job.Started = time.Now()
	defer func() {
		job.Elapsed = time.Since(job.Started)
		p.record(ctx, job)
	}()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"root", job.RootURL,
				"reason", err,
			)
			job.Err = err
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"root", job.RootURL,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"root", job.RootURL,
				"error", err,
			)
			job.Err = err
			return err
		}

		job.PerformedSteps = append(job.PerformedSteps, step.Name())
	}

	p.logger.Info("crawl completed",
		"root", job.RootURL,
		"nodes", job.Stats.Total(),
		"fetched", job.Stats.Fetched(),
		"bytes", job.Written,
	)
	return nil
}

// record logs the run. Recorder failures are logged and do not change
// the job's outcome.
func (p *Pipeline) record(ctx context.Context, job *Job) {
	if p.recorder == nil {
		return
	}

	run := &database.CrawlRun{
		RootURL:  job.RootURL,
		Artifact: job.Name,
		Format:   string(job.Format),
		Nodes:    job.Stats.Total(),
		Duration: job.Elapsed,
	}
	if job.Err != nil {
		run.Error = job.Err.Error()
	}

	if err := p.recorder.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		p.logger.Warn("failed to record crawl run", "root", job.RootURL, "error", err)
	}
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
