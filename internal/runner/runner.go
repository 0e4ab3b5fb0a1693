// Package runner executes a pipeline's needs graph: ready jobs fan out in
// parallel under a concurrency limit, and results fan back in as jobs
// reach a terminal state. A job never starts unless every job it needs
// has succeeded.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"time"

	"pipegate/internal/logger"
	"pipegate/internal/pipeline"
	"pipegate/internal/result"
	"pipegate/internal/runner/runtime"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Config holds configuration for the pipeline runner.
type Config struct {
	Concurrency    int
	DefaultTimeout time.Duration // per-job timeout when the job declares none
}

// Runner executes pipelines against a shell runtime and, optionally, a
// container runtime for jobs that declare an image.
type Runner struct {
	shell      runtime.Runtime
	containers runtime.Runtime
	config     Config
	logger     *slog.Logger
}

// New creates a new Runner. containers may be nil when no job in the
// pipelines to be run declares an image.
func New(shell runtime.Runtime, containers runtime.Runtime, config Config, logger *slog.Logger) *Runner {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		shell:      shell,
		containers: containers,
		config:     config,
		logger:     logger,
	}
}

// JobOutcome is the terminal record of a single job.
type JobOutcome struct {
	Name         string
	Result       result.Result
	Required     bool
	ExitCode     *int
	ErrorMessage string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	LogTail      string
}

// RunRecord is the complete record of one pipeline run.
type RunRecord struct {
	ID          uuid.UUID
	Pipeline    string
	StartedAt   time.Time
	CompletedAt time.Time
	Jobs        []JobOutcome // pipeline definition order
}

// Results returns the job name to result mapping, the input shape the
// aggregator consumes.
func (rec *RunRecord) Results() map[string]result.Result {
	results := make(map[string]result.Result, len(rec.Jobs))
	for _, j := range rec.Jobs {
		results[j.Name] = j.Result
	}
	return results
}

type completion struct {
	name    string
	outcome JobOutcome
}

// Run executes the pipeline until every job has a terminal result.
// Cancelling ctx marks unstarted jobs cancelled and interrupts in-flight
// ones; Run still returns a complete record in that case.
func (r *Runner) Run(ctx context.Context, p *pipeline.Pipeline) (*RunRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	for _, j := range p.Jobs {
		if j.Image != "" && r.containers == nil {
			return nil, fmt.Errorf("job %q declares an image but no container runtime is configured", j.Name)
		}
	}

	record := &RunRecord{
		ID:        uuid.New(),
		Pipeline:  p.Name,
		StartedAt: time.Now().UTC(),
	}
	ctx = logger.WithRunID(ctx, record.ID.String())
	log := logger.FromContext(ctx, r.logger).With("pipeline", p.Name)
	log.Info("starting pipeline", "jobs", len(p.Jobs), "concurrency", r.config.Concurrency)

	results := make(map[string]result.Result, len(p.Jobs))
	outcomes := make(map[string]JobOutcome, len(p.Jobs))
	started := make(map[string]bool, len(p.Jobs))
	compCh := make(chan completion)
	sem := make(chan struct{}, r.config.Concurrency)

	finish := func(name string, o JobOutcome) {
		results[name] = o.Result
		outcomes[name] = o
		log.Info("job finished", "job", name, "result", o.Result)
	}

	// dispatch walks the graph until no more state changes are possible:
	// it starts runnable jobs, skips jobs whose needs terminally failed,
	// and cancels pending jobs once ctx is done. Skips cascade, hence the
	// fixpoint loop.
	dispatch := func() {
		for progress := true; progress; {
			progress = false
			for _, j := range p.Jobs {
				if started[j.Name] {
					continue
				}
				if _, done := results[j.Name]; done {
					continue
				}
				if ctx.Err() != nil {
					finish(j.Name, terminalOutcome(j, result.Cancelled, "run cancelled before job started"))
					progress = true
					continue
				}

				skip, waiting := false, false
				for _, need := range j.Needs {
					res, done := results[need]
					switch {
					case !done:
						waiting = true
					case !res.Succeeded():
						skip = true
					}
				}
				if skip {
					finish(j.Name, terminalOutcome(j, result.Skipped, "dependency did not succeed"))
					progress = true
					continue
				}
				if waiting {
					continue
				}

				started[j.Name] = true
				progress = true
				go func(j pipeline.Job) {
					select {
					case sem <- struct{}{}:
					case <-ctx.Done():
						compCh <- completion{j.Name, terminalOutcome(j, result.Cancelled, "run cancelled before job started")}
						return
					}
					defer func() { <-sem }()
					compCh <- completion{j.Name, r.runJob(ctx, j, log)}
				}(j)
			}
		}
	}

	cancelSeen := false
	for len(results) < len(p.Jobs) {
		dispatch()
		if len(results) == len(p.Jobs) {
			break
		}
		if cancelSeen {
			c := <-compCh
			finish(c.name, c.outcome)
			continue
		}
		select {
		case c := <-compCh:
			finish(c.name, c.outcome)
		case <-ctx.Done():
			// Pending jobs are cancelled on the next dispatch pass;
			// keep draining completions from in-flight jobs.
			cancelSeen = true
		}
	}

	record.CompletedAt = time.Now().UTC()
	for _, j := range p.Jobs {
		record.Jobs = append(record.Jobs, outcomes[j.Name])
	}
	log.Info("pipeline finished", "duration", record.CompletedAt.Sub(record.StartedAt).String())
	return record, nil
}

// runJob executes a single job and classifies its terminal state.
func (r *Runner) runJob(ctx context.Context, j pipeline.Job, log *slog.Logger) JobOutcome {
	outcome := JobOutcome{Name: j.Name, Required: j.IsRequired()}

	if ctx.Err() != nil {
		return terminalOutcome(j, result.Cancelled, "run cancelled before job started")
	}

	tracer := otel.Tracer("pipegate-runner")
	ctx, span := tracer.Start(ctx, "run_job",
		trace.WithAttributes(
			attribute.String("job.name", j.Name),
			attribute.Bool("job.required", j.IsRequired()),
			attribute.String("job.image", j.Image),
		),
	)
	defer span.End()

	timeout := r.config.DefaultTimeout
	if j.Timeout > 0 {
		timeout = time.Duration(j.Timeout)
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rt := r.shell
	if j.Image != "" {
		rt = r.containers
	}

	env := make(map[string]string, len(j.Env)+1)
	for k, v := range j.Env {
		env[k] = v
	}
	env["PIPEGATE_JOB"] = j.Name

	startedAt := time.Now().UTC()
	outcome.StartedAt = &startedAt
	log.Info("starting job", "job", j.Name, "timeout", timeout.String())

	handle, err := rt.Start(jobCtx, runtime.StartOptions{
		Name:  j.Name,
		Run:   j.Run,
		Image: j.Image,
		Env:   env,
	})
	if err != nil {
		span.RecordError(err)
		completedAt := time.Now().UTC()
		outcome.CompletedAt = &completedAt
		if ctx.Err() != nil {
			outcome.Result = result.Cancelled
			outcome.ErrorMessage = "run cancelled"
		} else {
			outcome.Result = result.Failure
			outcome.ErrorMessage = fmt.Sprintf("failed to start: %v", err)
		}
		return outcome
	}

	tail := newLogTail(defaultTailLines)
	logsDone := make(chan struct{})
	go func() {
		defer close(logsDone)
		rc, err := handle.StreamLogs(jobCtx)
		if err != nil {
			log.Warn("failed to stream logs", "job", j.Name, "error", err)
			return
		}
		defer rc.Close()
		scanner := bufio.NewScanner(rc)
		for scanner.Scan() {
			tail.Add(scanner.Text())
		}
	}()

	res, waitErr := handle.Wait(jobCtx)

	if waitErr != nil {
		span.RecordError(waitErr)
		// Interrupted: make sure the process is gone before reading
		// the tail, otherwise the log goroutine may never finish.
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		handle.Stop(stopCtx)
		stopCancel()
	}
	// The log goroutine finishes when the runtime closes its side of the
	// stream. Bound the wait so a leaked descendant holding the pipe open
	// cannot stall the whole run.
	select {
	case <-logsDone:
	case <-time.After(10 * time.Second):
		log.Warn("gave up waiting for job logs", "job", j.Name)
	}

	completedAt := time.Now().UTC()
	outcome.CompletedAt = &completedAt
	outcome.LogTail = tail.String()

	switch {
	case waitErr != nil && ctx.Err() != nil:
		outcome.Result = result.Cancelled
		outcome.ErrorMessage = "run cancelled"
	case waitErr != nil && jobCtx.Err() == context.DeadlineExceeded:
		outcome.Result = result.Failure
		outcome.ErrorMessage = fmt.Sprintf("timed out after %s", timeout)
	case waitErr != nil:
		outcome.Result = result.Failure
		outcome.ErrorMessage = waitErr.Error()
	case res.ExitCode == 0:
		outcome.Result = result.Success
		outcome.ExitCode = &res.ExitCode
	default:
		outcome.Result = result.Failure
		outcome.ExitCode = &res.ExitCode
		outcome.ErrorMessage = fmt.Sprintf("exit code %d", res.ExitCode)
		if res.Error != nil {
			outcome.ErrorMessage = res.Error.Error()
		}
	}

	span.SetAttributes(attribute.String("job.result", string(outcome.Result)))
	return outcome
}

func terminalOutcome(j pipeline.Job, r result.Result, msg string) JobOutcome {
	return JobOutcome{
		Name:         j.Name,
		Result:       r,
		Required:     j.IsRequired(),
		ErrorMessage: msg,
	}
}
