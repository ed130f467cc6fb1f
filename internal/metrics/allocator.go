package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agbru/ctwide/internal/memory"
)

// AllocatorMetrics groups the counters maintained by InstrumentedAllocator.
// Only sizes are recorded; buffer contents never reach a metric.
type AllocatorMetrics struct {
	allocs      prometheus.Counter
	frees       prometheus.Counter
	failures    prometheus.Counter
	bytesAlloc  prometheus.Counter
	bytesErased prometheus.Counter
	bytesLive   prometheus.Gauge
}

// NewAllocatorMetrics creates the allocator metrics under namespace and
// registers them with reg. A nil reg leaves them unregistered.
func NewAllocatorMetrics(reg prometheus.Registerer, namespace string) *AllocatorMetrics {
	m := &AllocatorMetrics{
		allocs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "allocator", Name: "allocations_total",
			Help: "Number of successful limb buffer allocations.",
		}),
		frees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "allocator", Name: "frees_total",
			Help: "Number of limb buffers erased and released.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "allocator", Name: "failures_total",
			Help: "Number of allocation requests that returned an error.",
		}),
		bytesAlloc: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "allocator", Name: "allocated_bytes_total",
			Help: "Bytes handed out by the allocator.",
		}),
		bytesErased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "allocator", Name: "erased_bytes_total",
			Help: "Bytes erased before release.",
		}),
		bytesLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "allocator", Name: "live_bytes",
			Help: "Bytes currently held by live buffers.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.allocs, m.frees, m.failures, m.bytesAlloc, m.bytesErased, m.bytesLive)
	}
	return m
}

// InstrumentedAllocator wraps an Allocator and records its traffic.
type InstrumentedAllocator struct {
	next    memory.Allocator
	metrics *AllocatorMetrics
}

// Instrument returns next wrapped with m's counters.
func (m *AllocatorMetrics) Instrument(next memory.Allocator) *InstrumentedAllocator {
	return &InstrumentedAllocator{next: next, metrics: m}
}

func limbBytes(n int) float64 { return float64(n * memory.LimbBytes) }

// Alloc implements memory.Allocator.
func (a *InstrumentedAllocator) Alloc(limbs int) ([]uint32, error) {
	buf, err := a.next.Alloc(limbs)
	if err != nil {
		a.metrics.failures.Inc()
		return nil, err
	}
	if len(buf) > 0 {
		a.metrics.allocs.Inc()
		a.metrics.bytesAlloc.Add(limbBytes(len(buf)))
		a.metrics.bytesLive.Add(limbBytes(len(buf)))
	}
	return buf, nil
}

// Realloc implements memory.Allocator.
func (a *InstrumentedAllocator) Realloc(buf []uint32, limbs int) ([]uint32, error) {
	old := len(buf)
	next, err := a.next.Realloc(buf, limbs)
	if err != nil {
		a.metrics.failures.Inc()
		return next, err
	}
	if len(next) > old {
		a.metrics.bytesAlloc.Add(limbBytes(len(next) - old))
	} else if len(next) < old {
		a.metrics.bytesErased.Add(limbBytes(old - len(next)))
	}
	a.metrics.bytesLive.Add(limbBytes(len(next)) - limbBytes(old))
	return next, nil
}

// Free implements memory.Allocator.
func (a *InstrumentedAllocator) Free(buf []uint32) {
	if len(buf) == 0 {
		return
	}
	n := len(buf)
	a.next.Free(buf)
	a.metrics.frees.Inc()
	a.metrics.bytesErased.Add(limbBytes(n))
	a.metrics.bytesLive.Sub(limbBytes(n))
}
