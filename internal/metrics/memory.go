package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// MemorySnapshot holds a point-in-time memory reading.
type MemorySnapshot struct {
	HeapAlloc   uint64 // bytes in use by the Go heap
	Sys         uint64 // total bytes obtained from OS
	NumGC       uint32 // number of completed GC cycles
	EngineInUse uint64 // bytes held by wide-integer buffers
	EngineLimit uint64 // allocator budget, 0 when unlimited
}

// Usage is implemented by allocators that account their bytes, such as
// memory.HeapAllocator.
type Usage interface {
	InUse() uint64
	Limit() uint64
}

// MemoryCollector reads runtime statistics together with an allocator's
// accounting. It also implements prometheus.Collector.
type MemoryCollector struct {
	usage Usage

	heapDesc   *prometheus.Desc
	engineDesc *prometheus.Desc
	limitDesc  *prometheus.Desc
}

// NewMemoryCollector creates a collector for usage, which may be nil.
func NewMemoryCollector(namespace string, usage Usage) *MemoryCollector {
	return &MemoryCollector{
		usage:      usage,
		heapDesc:   prometheus.NewDesc(prometheus.BuildFQName(namespace, "memory", "heap_alloc_bytes"), "Go heap bytes in use.", nil, nil),
		engineDesc: prometheus.NewDesc(prometheus.BuildFQName(namespace, "memory", "engine_in_use_bytes"), "Bytes held by wide-integer buffers.", nil, nil),
		limitDesc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "memory", "engine_limit_bytes"), "Allocator budget in bytes; 0 means unlimited.", nil, nil),
	}
}

// Snapshot reads current memory statistics.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	s := MemorySnapshot{
		HeapAlloc: m.HeapAlloc,
		Sys:       m.Sys,
		NumGC:     m.NumGC,
	}
	if mc.usage != nil {
		s.EngineInUse = mc.usage.InUse()
		s.EngineLimit = mc.usage.Limit()
	}
	return s
}

// Describe implements prometheus.Collector.
func (mc *MemoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- mc.heapDesc
	ch <- mc.engineDesc
	ch <- mc.limitDesc
}

// Collect implements prometheus.Collector.
func (mc *MemoryCollector) Collect(ch chan<- prometheus.Metric) {
	s := mc.Snapshot()
	ch <- prometheus.MustNewConstMetric(mc.heapDesc, prometheus.GaugeValue, float64(s.HeapAlloc))
	ch <- prometheus.MustNewConstMetric(mc.engineDesc, prometheus.GaugeValue, float64(s.EngineInUse))
	ch <- prometheus.MustNewConstMetric(mc.limitDesc, prometheus.GaugeValue, float64(s.EngineLimit))
}
