package mqttree

import (
	"strconv"
	"time"
)

// MetricType represents the type of metric.
type MetricType int

const (
	// MetricTypeCounter is a monotonically increasing counter.
	MetricTypeCounter MetricType = 0
	// MetricTypeGauge is a value that can go up and down.
	MetricTypeGauge MetricType = 1
	// MetricTypeHistogram tracks distribution of values.
	MetricTypeHistogram MetricType = 2
)

// String returns the string representation of the metric type.
func (t MetricType) String() string {
	switch t {
	case MetricTypeCounter:
		return "counter"
	case MetricTypeGauge:
		return "gauge"
	case MetricTypeHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// MetricLabels represents key-value pairs for metric labels.
type MetricLabels map[string]string

// Metrics defines the interface for collecting metrics.
type Metrics interface {
	// Counter returns a counter metric.
	Counter(name string, labels MetricLabels) Counter

	// Gauge returns a gauge metric.
	Gauge(name string, labels MetricLabels) Gauge

	// Histogram returns a histogram metric.
	Histogram(name string, labels MetricLabels) Histogram
}

// Counter is a monotonically increasing counter.
type Counter interface {
	// Inc increments the counter by 1.
	Inc()

	// Add adds the given value to the counter.
	Add(delta float64)

	// Value returns the current value.
	Value() float64
}

// Gauge is a metric that can go up and down.
type Gauge interface {
	// Set sets the gauge to the given value.
	Set(value float64)

	// Inc increments the gauge by 1.
	Inc()

	// Dec decrements the gauge by 1.
	Dec()

	// Add adds the given value to the gauge.
	Add(delta float64)

	// Sub subtracts the given value from the gauge.
	Sub(delta float64)

	// Value returns the current value.
	Value() float64
}

// Histogram tracks the distribution of values.
type Histogram interface {
	// Observe records a value.
	Observe(value float64)

	// ObserveDuration records a duration in seconds.
	ObserveDuration(d time.Duration)

	// Count returns the number of observations.
	Count() uint64

	// Sum returns the sum of all observations.
	Sum() float64
}

// NoOpMetrics is a no-op implementation of Metrics.
type NoOpMetrics struct{}

// Counter returns a no-op counter.
func (n *NoOpMetrics) Counter(_ string, _ MetricLabels) Counter {
	return &noOpCounter{}
}

// Gauge returns a no-op gauge.
func (n *NoOpMetrics) Gauge(_ string, _ MetricLabels) Gauge {
	return &noOpGauge{}
}

// Histogram returns a no-op histogram.
func (n *NoOpMetrics) Histogram(_ string, _ MetricLabels) Histogram {
	return &noOpHistogram{}
}

type noOpCounter struct{}

func (n *noOpCounter) Inc()           {}
func (n *noOpCounter) Add(_ float64)  {}
func (n *noOpCounter) Value() float64 { return 0 }

type noOpGauge struct{}

func (n *noOpGauge) Set(_ float64)  {}
func (n *noOpGauge) Inc()           {}
func (n *noOpGauge) Dec()           {}
func (n *noOpGauge) Add(_ float64)  {}
func (n *noOpGauge) Sub(_ float64)  {}
func (n *noOpGauge) Value() float64 { return 0 }

type noOpHistogram struct{}

func (n *noOpHistogram) Observe(_ float64)               {}
func (n *noOpHistogram) ObserveDuration(_ time.Duration) {}
func (n *noOpHistogram) Count() uint64                   { return 0 }
func (n *noOpHistogram) Sum() float64                    { return 0 }

// Standard metric names for the topic tree.
const (
	// MetricPublished is the total number of messages handed to the transport.
	MetricPublished = "mqttree_published_total"

	// MetricPublishFailed is the total number of publish attempts rejected by the transport.
	MetricPublishFailed = "mqttree_publish_failed_total"

	// MetricPublishDeferred is the total number of publishes postponed by the rate limiter.
	MetricPublishDeferred = "mqttree_publish_deferred_total"

	// MetricDispatched is the total number of inbound messages dispatched, by result code.
	MetricDispatched = "mqttree_dispatched_total"

	// MetricInboundDropped is the total number of inbound messages dropped on a full inbox.
	MetricInboundDropped = "mqttree_inbound_dropped_total"

	// MetricStatusDropped is the total number of statuses dropped while one was pending.
	MetricStatusDropped = "mqttree_status_dropped_total"

	// MetricSubscriptions is the number of subscriptions made on the last connect.
	MetricSubscriptions = "mqttree_subscriptions"

	// MetricRegistrations is the total number of topic registrations, by outcome.
	MetricRegistrations = "mqttree_registrations_total"

	// MetricArenaBytes is the number of arena bytes in use.
	MetricArenaBytes = "mqttree_arena_bytes"

	// MetricTicks is the total number of Handle invocations.
	MetricTicks = "mqttree_ticks_total"

	// MetricTickLatency is the duration of a Handle invocation.
	MetricTickLatency = "mqttree_tick_latency_seconds"
)

// Standard metric labels.
const (
	// LabelQoS is the QoS level label.
	LabelQoS = "qos"

	// LabelCode is the result code label.
	LabelCode = "code"

	// LabelOutcome is the registration outcome label.
	LabelOutcome = "outcome"
)

// TreeMetrics provides convenience methods for common tree metrics.
type TreeMetrics struct {
	metrics Metrics
}

// NewTreeMetrics creates a new TreeMetrics instance.
func NewTreeMetrics(m Metrics) *TreeMetrics {
	if m == nil {
		m = &NoOpMetrics{}
	}
	return &TreeMetrics{metrics: m}
}

// Published records a message handed to the transport.
func (t *TreeMetrics) Published(qos byte) {
	labels := MetricLabels{LabelQoS: string(rune('0' + qos))}
	t.metrics.Counter(MetricPublished, labels).Inc()
}

// PublishFailed records a publish rejected by the transport.
func (t *TreeMetrics) PublishFailed() {
	t.metrics.Counter(MetricPublishFailed, nil).Inc()
}

// PublishDeferred records a publish postponed by the rate limiter.
func (t *TreeMetrics) PublishDeferred() {
	t.metrics.Counter(MetricPublishDeferred, nil).Inc()
}

// Dispatched records the result of an inbound message.
func (t *TreeMetrics) Dispatched(code ResultCode) {
	labels := MetricLabels{LabelCode: strconv.Itoa(int(code))}
	t.metrics.Counter(MetricDispatched, labels).Inc()
}

// InboundDropped records an inbound message dropped on a full inbox.
func (t *TreeMetrics) InboundDropped() {
	t.metrics.Counter(MetricInboundDropped, nil).Inc()
}

// StatusDropped records a status dropped while the previous one was pending.
func (t *TreeMetrics) StatusDropped() {
	t.metrics.Counter(MetricStatusDropped, nil).Inc()
}

// Subscriptions records the number of subscriptions made on connect.
func (t *TreeMetrics) Subscriptions(n int) {
	t.metrics.Gauge(MetricSubscriptions, nil).Set(float64(n))
}

// Registered records a topic registration outcome: "ok" or the failing result code text.
func (t *TreeMetrics) Registered(outcome string) {
	labels := MetricLabels{LabelOutcome: outcome}
	t.metrics.Counter(MetricRegistrations, labels).Inc()
}

// ArenaBytes records the arena bytes in use.
func (t *TreeMetrics) ArenaBytes(n int) {
	t.metrics.Gauge(MetricArenaBytes, nil).Set(float64(n))
}

// Tick records one Handle invocation and its duration.
func (t *TreeMetrics) Tick(d time.Duration) {
	t.metrics.Counter(MetricTicks, nil).Inc()
	t.metrics.Histogram(MetricTickLatency, nil).ObserveDuration(d)
}
