package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/agbru/ctwide/internal/config"
	"github.com/agbru/ctwide/internal/memory"
)

func TestMemoryCollector_Snapshot(t *testing.T) {
	t.Parallel()

	heap := memory.NewHeapAllocator(config.DefaultConfig(), nil)
	buf, err := heap.Alloc(10)
	if err != nil {
		t.Fatal(err)
	}
	defer heap.Free(buf)

	snap := NewMemoryCollector("ctwide", heap).Snapshot()
	if snap.HeapAlloc == 0 {
		t.Error("HeapAlloc should be > 0")
	}
	if snap.Sys == 0 {
		t.Error("Sys should be > 0")
	}
	if snap.EngineInUse != 40 {
		t.Errorf("EngineInUse = %d, want 40", snap.EngineInUse)
	}
}

func TestMemoryCollector_NilUsage(t *testing.T) {
	t.Parallel()
	snap := NewMemoryCollector("ctwide", nil).Snapshot()
	if snap.EngineInUse != 0 || snap.EngineLimit != 0 {
		t.Errorf("nil usage should report zeros, got %+v", snap)
	}
}

func TestMemoryCollector_Collect(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()
	cfg.MemoryLimit = 1 << 20
	mc := NewMemoryCollector("ctwide", memory.NewHeapAllocator(cfg, nil))

	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(mc)
	if n := testutil.CollectAndCount(mc); n != 3 {
		t.Errorf("CollectAndCount = %d, want 3", n)
	}
	if n, err := testutil.GatherAndCount(reg, "ctwide_memory_engine_limit_bytes"); err != nil || n != 1 {
		t.Errorf("GatherAndCount = %d, %v", n, err)
	}
}
