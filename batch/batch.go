package batch

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/ctwide/internal/config"
	apperrors "github.com/agbru/ctwide/internal/errors"
	"github.com/agbru/ctwide/internal/logging"
	"github.com/agbru/ctwide/internal/memory"
	"github.com/agbru/ctwide/internal/metrics"
	"github.com/agbru/ctwide/wide"
)

const instrumentationName = "github.com/agbru/ctwide/batch"

// DefaultArenaLimbs is the per-job arena size when none is configured.
const DefaultArenaLimbs = 4096

// Env is what a job may use while it runs.
type Env struct {
	// Alloc is the job's arena. Values allocated from it are only valid
	// until the job returns.
	Alloc memory.Allocator
	// Logger is the runner's logger. Log sizes and names, never values.
	Logger logging.Logger
}

// New returns a zero Int of widthBytes allocated from the job's arena.
func (e *Env) New(widthBytes int) (*wide.Int, error) {
	return wide.New(widthBytes, wide.WithAllocator(e.Alloc))
}

// FromBytes returns an Int holding buf, allocated from the job's arena.
func (e *Env) FromBytes(buf []byte) (*wide.Int, error) {
	return wide.FromBytes(buf, wide.WithAllocator(e.Alloc))
}

// Job is one unit of work. Fn returns the little-endian bytes of its
// result, which must not alias arena memory.
type Job struct {
	Name    string
	Timeout time.Duration // zero means no per-job limit
	Fn      func(ctx context.Context, env *Env) ([]byte, error)
}

// Result is the outcome of one Job.
type Result struct {
	// Name is the job's name.
	Name string
	// Value is the job's output; nil if an error occurred.
	Value []byte
	// Duration is the time taken by the job.
	Duration time.Duration
	// Err contains any error returned by the job.
	Err error
}

// Runner executes batches of jobs.
type Runner struct {
	maxConcurrency int
	arenaLimbs     int
	alloc          memory.Allocator
	logger         logging.Logger
	logOutput      io.Writer
	tracer         trace.Tracer
	metrics        *metrics.BatchMetrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger, overriding the configured level.
func WithLogger(l logging.Logger) Option { return func(r *Runner) { r.logger = l } }

// WithLogOutput sets where the configured logger writes. The default is
// standard error.
func WithLogOutput(w io.Writer) Option { return func(r *Runner) { r.logOutput = w } }

// WithTracer sets the tracer used for per-job spans.
func WithTracer(t trace.Tracer) Option { return func(r *Runner) { r.tracer = t } }

// WithMetrics records job outcomes in m.
func WithMetrics(m *metrics.BatchMetrics) Option { return func(r *Runner) { r.metrics = m } }

// WithAllocator sets the allocator that backs the per-job arenas. Without
// it the runner builds a HeapAllocator from the config's memory limit and
// page-locking settings.
func WithAllocator(a memory.Allocator) Option { return func(r *Runner) { r.alloc = a } }

// WithArenaLimbs sets the per-job arena capacity.
func WithArenaLimbs(n int) Option { return func(r *Runner) { r.arenaLimbs = n } }

// NewRunner builds a Runner from cfg. Concurrency is bounded by
// cfg.MaxConcurrency (CPU-derived when 0), the default logger filters at
// cfg.LogLevel and cfg.ScratchPooling is applied to the process-wide
// scratch pools.
func NewRunner(cfg config.EngineConfig, opts ...Option) (*Runner, error) {
	cfg = config.ApplyAdaptiveDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		maxConcurrency: cfg.MaxConcurrency,
		arenaLimbs:     DefaultArenaLimbs,
		logOutput:      os.Stderr,
		tracer:         otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		l, err := logging.NewLevelLogger(r.logOutput, "batch", cfg.LogLevel)
		if err != nil {
			return nil, apperrors.NewConfigError("log level: %v", err)
		}
		r.logger = l
	}
	if r.alloc == nil {
		r.alloc = memory.NewHeapAllocator(cfg, r.logger)
	}
	memory.SetScratchPooling(cfg.ScratchPooling)
	return r, nil
}

// NewRunnerFromEnv loads the configuration from CTWIDE_* environment
// variables and builds a Runner from it.
func NewRunnerFromEnv(opts ...Option) (*Runner, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apperrors.WrapError(err, "batch: load config")
	}
	return NewRunner(cfg, opts...)
}

// Run executes jobs concurrently and returns one Result per job, in input
// order. Job failures are reported in their Result and do not stop other
// jobs; Run itself only returns an error when ctx is done before every job
// has started.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrency)
	results := make([]Result, len(jobs))

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(jobs); j++ {
				results[j] = Result{Name: jobs[j].Name, Err: err}
			}
			_ = g.Wait()
			return results, apperrors.WrapError(err, "batch canceled after %d of %d jobs", i, len(jobs))
		}
		g.Go(func() error {
			results[i] = r.runJob(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (r *Runner) runJob(ctx context.Context, job Job) Result {
	ctx, span := r.tracer.Start(ctx, "batch.job", trace.WithAttributes(attribute.String("job.name", job.Name)))
	defer span.End()

	if r.metrics != nil {
		r.metrics.JobStarted()
	}
	start := time.Now()
	value, err := r.execute(ctx, job)
	elapsed := time.Since(start)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
		if apperrors.IsContextError(err) {
			outcome = metrics.OutcomeCanceled
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("batch job failed", err, logging.String("job", job.Name))
	} else {
		span.SetAttributes(attribute.Int("result.bytes", len(value)))
		r.logger.Debug("batch job done", logging.String("job", job.Name), logging.Int("bytes", len(value)))
	}
	if r.metrics != nil {
		r.metrics.JobFinished(outcome, elapsed)
	}
	return Result{Name: job.Name, Value: value, Duration: elapsed, Err: err}
}

func (r *Runner) execute(ctx context.Context, job Job) ([]byte, error) {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}
	arena, err := memory.NewArena(r.arenaLimbs, r.alloc)
	if err != nil {
		return nil, apperrors.OperationError{Op: job.Name, Cause: err}
	}
	defer arena.Release()

	env := &Env{Alloc: arena, Logger: r.logger}
	value, err := job.Fn(ctx, env)
	if err != nil {
		if job.Timeout > 0 && errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.TimeoutError{Operation: job.Name, Limit: job.Timeout}
		}
		return nil, err
	}
	return value, nil
}

// FirstError returns the first failed Result's error in input order, or nil.
func FirstError(results []Result) error {
	for _, res := range results {
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}
