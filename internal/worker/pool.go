// Package worker runs independent image warp jobs on a bounded set of goroutines.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Processor handles a single job and returns the path it wrote.
type Processor interface {
	Process(ctx context.Context, job Job) (output string, err error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job Job) (string, error)

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, job Job) (string, error) { return f(ctx, job) }

// Job is one input file to warp.
type Job struct {
	Input  string
	Output string
}

// Result is the outcome of a job.
type Result struct {
	Job     Job
	Output  string
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each job completes with that job's result
// and the number of results collected so far.
type ProgressFunc func(r Result, completed, total int)

// Config configures the pool.
type Config struct {
	Workers    int
	Processor  Processor
	OnProgress ProgressFunc
	Logger     *slog.Logger
}

// Pool runs jobs in parallel.
type Pool struct {
	workers    int
	processor  Processor
	onProgress ProgressFunc
	logger     *slog.Logger
}

// New creates a pool. Fewer than one worker means one.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		processor:  cfg.Processor,
		onProgress: cfg.OnProgress,
		logger:     cfg.Logger,
	}
}

// Run executes all jobs and returns one result per job, in completion order.
// Jobs picked up after ctx is cancelled are not processed; their result
// carries ctx.Err().
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	if len(jobs) == 0 {
		return nil
	}

	jobCh := make(chan Job, len(jobs))
	resultCh := make(chan Result, len(jobs))

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	var wg sync.WaitGroup
	for range min(p.workers, len(jobs)) {
		wg.Go(func() {
			p.worker(ctx, jobCh, resultCh)
		})
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]Result, 0, len(jobs))
	for result := range resultCh {
		results = append(results, result)
		if result.Err != nil {
			p.log().Warn("Job failed", "input", result.Job.Input, "error", result.Err)
		}
		if p.onProgress != nil {
			p.onProgress(result, len(results), len(jobs))
		}
	}

	return results
}

func (p *Pool) worker(ctx context.Context, jobs <-chan Job, results chan<- Result) {
	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- Result{Job: job, Err: err}
			continue
		}

		start := time.Now()
		output, err := p.processor.Process(ctx, job)
		results <- Result{
			Job:     job,
			Output:  output,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}

func (p *Pool) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}
