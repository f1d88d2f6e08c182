package mqttree

import (
	"maps"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryMetrics is an in-memory implementation of Metrics for tests and
// the examples. Series are keyed by name and sorted labels.
type MemoryMetrics struct {
	mu         sync.RWMutex
	counters   map[string]*memoryCounter
	gauges     map[string]*memoryGauge
	histograms map[string]*memoryHistogram
}

// NewMemoryMetrics creates an empty collector.
func NewMemoryMetrics() *MemoryMetrics {
	return &MemoryMetrics{
		counters:   make(map[string]*memoryCounter),
		gauges:     make(map[string]*memoryGauge),
		histograms: make(map[string]*memoryHistogram),
	}
}

// labelsKey renders "name|k1=v1|k2=v2" with keys sorted.
func labelsKey(name string, labels MetricLabels) string {
	if len(labels) == 0 {
		return name
	}

	var b strings.Builder
	b.WriteString(name)
	for _, k := range slices.Sorted(maps.Keys(labels)) {
		b.WriteString("|" + k + "=" + labels[k])
	}
	return b.String()
}

// series returns the entry for key, creating it under the write lock.
func series[M any](m *MemoryMetrics, store map[string]*M, key string) *M {
	m.mu.RLock()
	s, ok := store[key]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := store[key]; ok {
		return s
	}
	s = new(M)
	store[key] = s
	return s
}

// find returns the entry for key, or nil.
func find[M any](m *MemoryMetrics, store map[string]*M, key string) *M {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return store[key]
}

// Counter returns the counter of a series.
func (m *MemoryMetrics) Counter(name string, labels MetricLabels) Counter {
	return series(m, m.counters, labelsKey(name, labels))
}

// Gauge returns the gauge of a series.
func (m *MemoryMetrics) Gauge(name string, labels MetricLabels) Gauge {
	return series(m, m.gauges, labelsKey(name, labels))
}

// Histogram returns the histogram of a series.
func (m *MemoryMetrics) Histogram(name string, labels MetricLabels) Histogram {
	return series(m, m.histograms, labelsKey(name, labels))
}

// CounterValue returns the value of a counter, or 0 if it was never created.
func (m *MemoryMetrics) CounterValue(name string, labels MetricLabels) float64 {
	if c := find(m, m.counters, labelsKey(name, labels)); c != nil {
		return c.Value()
	}
	return 0
}

// GetCounter returns an existing counter, or nil.
func (m *MemoryMetrics) GetCounter(name string, labels MetricLabels) Counter {
	if c := find(m, m.counters, labelsKey(name, labels)); c != nil {
		return c
	}
	return nil
}

// GetGauge returns an existing gauge, or nil.
func (m *MemoryMetrics) GetGauge(name string, labels MetricLabels) Gauge {
	if g := find(m, m.gauges, labelsKey(name, labels)); g != nil {
		return g
	}
	return nil
}

// GetHistogram returns an existing histogram, or nil.
func (m *MemoryMetrics) GetHistogram(name string, labels MetricLabels) Histogram {
	if h := find(m, m.histograms, labelsKey(name, labels)); h != nil {
		return h
	}
	return nil
}

// atomicFloat is a float64 updated with compare-and-swap on its bits.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *atomicFloat) add(delta float64) {
	for {
		old := f.bits.Load()
		if f.bits.CompareAndSwap(old, math.Float64bits(math.Float64frombits(old)+delta)) {
			return
		}
	}
}

type memoryCounter struct{ v atomicFloat }

func (c *memoryCounter) Inc()              { c.v.add(1) }
func (c *memoryCounter) Add(delta float64) { c.v.add(delta) }
func (c *memoryCounter) Value() float64    { return c.v.load() }

type memoryGauge struct{ v atomicFloat }

func (g *memoryGauge) Set(value float64) { g.v.store(value) }
func (g *memoryGauge) Inc()              { g.v.add(1) }
func (g *memoryGauge) Dec()              { g.v.add(-1) }
func (g *memoryGauge) Add(delta float64) { g.v.add(delta) }
func (g *memoryGauge) Sub(delta float64) { g.v.add(-delta) }
func (g *memoryGauge) Value() float64    { return g.v.load() }

type memoryHistogram struct {
	count atomic.Uint64
	sum   atomicFloat
}

func (h *memoryHistogram) Observe(value float64) {
	h.count.Add(1)
	h.sum.add(value)
}

func (h *memoryHistogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

func (h *memoryHistogram) Count() uint64 { return h.count.Load() }
func (h *memoryHistogram) Sum() float64  { return h.sum.load() }
