package batch

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/agbru/ctwide/internal/config"
	apperrors "github.com/agbru/ctwide/internal/errors"
	"github.com/agbru/ctwide/internal/logging"
	"github.com/agbru/ctwide/internal/memory"
	"github.com/agbru/ctwide/internal/metrics"
	"github.com/agbru/ctwide/wide"
)

func testConfig(concurrency int) config.EngineConfig {
	cfg := config.DefaultConfig()
	cfg.MaxConcurrency = concurrency
	cfg.LogLevel = "disabled"
	return cfg
}

func newTestRunner(t *testing.T, cfg config.EngineConfig, opts ...Option) *Runner {
	t.Helper()
	r, err := NewRunner(cfg, opts...)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

// squareJob squares the value in buf using arena memory.
func squareJob(name string, buf []byte) Job {
	return Job{Name: name, Fn: func(_ context.Context, env *Env) ([]byte, error) {
		x, err := env.FromBytes(buf)
		if err != nil {
			return nil, err
		}
		sq, err := env.New(0)
		if err != nil {
			return nil, err
		}
		if err := wide.Square(sq, x); err != nil {
			return nil, err
		}
		return sq.Bytes(), nil
	}}
}

func bigLE(le []byte) *big.Int {
	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}
	return new(big.Int).SetBytes(be)
}

func TestRunComputesEveryJob(t *testing.T) {
	t.Parallel()
	inputs := [][]byte{{0x02}, {0xFF, 0xFF}, {0x01, 0x02, 0x03, 0x04, 0x05}, nil}
	jobs := make([]Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = squareJob(string(rune('a'+i)), in)
	}

	r := newTestRunner(t, testConfig(2), WithTracer(noop.NewTracerProvider().Tracer("test")))
	results, err := r.Run(context.Background(), jobs)
	if err != nil {
		t.Fatal(err)
	}
	if err := FirstError(results); err != nil {
		t.Fatalf("unexpected job failure: %v", err)
	}
	for i, res := range results {
		if res.Name != jobs[i].Name {
			t.Errorf("result %d out of order: %s", i, res.Name)
		}
		in := bigLE(inputs[i])
		if want := new(big.Int).Mul(in, in); bigLE(res.Value).Cmp(want) != 0 {
			t.Errorf("job %s = %s, want %s", res.Name, bigLE(res.Value), want)
		}
	}
}

func TestRunIsolatesFailingJob(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	reg := prometheus.NewRegistry()
	m := metrics.NewBatchMetrics(reg, "ctwide")
	boom := errors.New("bad operand")

	jobs := []Job{
		squareJob("ok-1", []byte{3}),
		{Name: "broken", Fn: func(context.Context, *Env) ([]byte, error) { return nil, boom }},
		squareJob("ok-2", []byte{4}),
	}
	r := newTestRunner(t, testConfig(3), WithMetrics(m), WithLogger(logging.NewLogger(&logs, "batch")))
	results, err := r.Run(context.Background(), jobs)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(FirstError(results), boom) {
		t.Fatalf("FirstError = %v, want %v", FirstError(results), boom)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("healthy jobs failed: %v, %v", results[0].Err, results[2].Err)
	}
	if results[1].Value != nil {
		t.Error("failed job must not carry a value")
	}
	if !bytes.Contains(logs.Bytes(), []byte("broken")) {
		t.Errorf("failure not logged: %s", logs.String())
	}
	expected := `
# HELP ctwide_batch_jobs_total Number of batch jobs by outcome.
# TYPE ctwide_batch_jobs_total counter
ctwide_batch_jobs_total{outcome="failure"} 1
ctwide_batch_jobs_total{outcome="success"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "ctwide_batch_jobs_total"); err != nil {
		t.Error(err)
	}
}

func TestRunJobTimeout(t *testing.T) {
	t.Parallel()
	job := Job{
		Name:    "slow",
		Timeout: 10 * time.Millisecond,
		Fn: func(ctx context.Context, _ *Env) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	results, err := newTestRunner(t, testConfig(1)).Run(context.Background(), []Job{job})
	if err != nil {
		t.Fatal(err)
	}
	var te apperrors.TimeoutError
	if !errors.As(results[0].Err, &te) {
		t.Fatalf("expected TimeoutError, got %v", results[0].Err)
	}
	if te.Operation != "slow" || te.Limit != 10*time.Millisecond {
		t.Errorf("TimeoutError = %+v", te)
	}
}

func TestRunCanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := newTestRunner(t, testConfig(1)).Run(ctx, []Job{squareJob("a", []byte{1}), squareJob("b", []byte{2})})
	if !apperrors.IsContextError(err) {
		t.Fatalf("expected a context error, got %v", err)
	}
	for _, res := range results {
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("job %s: err = %v", res.Name, res.Err)
		}
	}
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	t.Parallel()
	var running, peak atomic.Int32
	job := func(context.Context, *Env) ([]byte, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return []byte{1}, nil
	}
	jobs := make([]Job, 12)
	for i := range jobs {
		jobs[i] = Job{Name: "j", Fn: job}
	}
	if _, err := newTestRunner(t, testConfig(2)).Run(context.Background(), jobs); err != nil {
		t.Fatal(err)
	}
	if peak.Load() > 2 {
		t.Errorf("peak concurrency %d exceeds limit 2", peak.Load())
	}
}

// keepEraser leaves memory untouched, so only the arena's own erasure can
// clear what a job wrote.
type keepEraser struct{}

func (keepEraser) Erase([]uint32)    {}
func (keepEraser) EraseBytes([]byte) {}

// recordingAllocator remembers every buffer it hands out.
type recordingAllocator struct {
	*memory.HeapAllocator
	mu     sync.Mutex
	handed [][]uint32
}

func (a *recordingAllocator) Alloc(limbs int) ([]uint32, error) {
	buf, err := a.HeapAllocator.Alloc(limbs)
	if err == nil {
		a.mu.Lock()
		a.handed = append(a.handed, buf)
		a.mu.Unlock()
	}
	return buf, err
}

func TestArenaIsErasedAfterJob(t *testing.T) {
	t.Parallel()
	heap := memory.NewHeapAllocator(config.DefaultConfig(), nil)
	heap.SetEraser(keepEraser{})
	rec := &recordingAllocator{HeapAllocator: heap}

	small := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	large := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, 6) // 6 limbs, past the arena
	var seen [][]byte
	job := Job{Name: "secret", Fn: func(_ context.Context, env *Env) ([]byte, error) {
		for _, in := range [][]byte{small, large} {
			x, err := env.FromBytes(in)
			if err != nil {
				return nil, err
			}
			seen = append(seen, x.Bytes())
		}
		return nil, nil
	}}
	r := newTestRunner(t, testConfig(1), WithAllocator(rec), WithArenaLimbs(4))
	results, err := r.Run(context.Background(), []Job{job})
	if err != nil {
		t.Fatal(err)
	}
	if err := FirstError(results); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || !bytes.Equal(seen[0], small) || !bytes.Equal(seen[1], large) {
		t.Fatalf("job did not run: %x", seen)
	}
	if len(rec.handed) != 2 {
		t.Fatalf("allocator handed out %d buffers, want block and spill", len(rec.handed))
	}
	for i, buf := range rec.handed {
		for j, v := range buf {
			if v != 0 {
				t.Errorf("buffer %d limb %d not erased: %#x", i, j, v)
			}
		}
	}
	if heap.InUse() != 0 {
		t.Errorf("arena memory not returned: %d bytes in use", heap.InUse())
	}
}

func TestArenaAllocationFailure(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()
	cfg.MemoryLimit = 16
	heap := memory.NewHeapAllocator(cfg, nil)
	r := newTestRunner(t, testConfig(1), WithAllocator(heap), WithArenaLimbs(1024))
	results, err := r.Run(context.Background(), []Job{squareJob("big", []byte{1})})
	if err != nil {
		t.Fatal(err)
	}
	var me apperrors.MemoryError
	if !errors.As(results[0].Err, &me) {
		t.Fatalf("expected MemoryError, got %v", results[0].Err)
	}
}

func TestNewRunnerAppliesConfig(t *testing.T) {
	cfg := testConfig(1)
	cfg.LogLevel = "error"
	cfg.MemoryLimit = 64
	var logs bytes.Buffer
	r := newTestRunner(t, cfg, WithLogOutput(&logs), WithArenaLimbs(4))

	heap, ok := r.alloc.(*memory.HeapAllocator)
	if !ok {
		t.Fatalf("default allocator is %T", r.alloc)
	}
	if heap.Limit() != 64 {
		t.Errorf("Limit() = %d, want 64", heap.Limit())
	}

	jobs := []Job{
		squareJob("quiet", []byte{2}),
		{Name: "loud", Fn: func(context.Context, *Env) ([]byte, error) { return nil, errors.New("bad operand") }},
	}
	if _, err := r.Run(context.Background(), jobs); err != nil {
		t.Fatal(err)
	}
	out := logs.String()
	if !strings.Contains(out, "loud") || !strings.Contains(out, `"component":"batch"`) {
		t.Errorf("error-level failure not logged: %s", out)
	}
	if strings.Contains(out, "quiet") {
		t.Errorf("debug output leaked past level %q: %s", cfg.LogLevel, out)
	}
}

func TestNewRunnerRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	cfg := testConfig(1)
	cfg.LogLevel = "loud"
	var ce apperrors.ConfigError
	if _, err := NewRunner(cfg); !errors.As(err, &ce) {
		t.Fatalf("NewRunner error = %v, want ConfigError", err)
	}
}

func TestNewRunnerAppliesScratchPooling(t *testing.T) {
	cfg := testConfig(1)
	cfg.ScratchPooling = false
	newTestRunner(t, cfg)
	if memory.ScratchPooling() {
		t.Error("scratch pooling still enabled")
	}
	newTestRunner(t, testConfig(1))
	if !memory.ScratchPooling() {
		t.Error("scratch pooling not restored")
	}
}

func TestNewRunnerFromEnv(t *testing.T) {
	t.Setenv("CTWIDE_MEMORY_LIMIT", "1MiB")
	t.Setenv("CTWIDE_MAX_CONCURRENCY", "3")
	t.Setenv("CTWIDE_LOG_LEVEL", "disabled")
	r, err := NewRunnerFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if r.maxConcurrency != 3 {
		t.Errorf("maxConcurrency = %d, want 3", r.maxConcurrency)
	}
	if heap := r.alloc.(*memory.HeapAllocator); heap.Limit() != 1<<20 {
		t.Errorf("Limit() = %d, want %d", heap.Limit(), 1<<20)
	}

	t.Setenv("CTWIDE_MAX_CONCURRENCY", "-1")
	if _, err := NewRunnerFromEnv(); err == nil {
		t.Error("negative concurrency accepted")
	}
}
