// Package metrics provides Prometheus metrics for FCP connections and the
// operations issued over them.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "fcp"
)

// Close reasons
const (
	ReasonLocal     = "local"
	ReasonEOF       = "eof"
	ReasonError     = "error"
	ReasonDuplicate = "duplicate_client_name"
)

// Call results
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultClosed   = "closed"
	ResultCanceled = "canceled"
)

type Metrics struct {
	// Connection metrics
	ConnectionsOpen  prometheus.Gauge
	ConnectionsTotal prometheus.Counter
	ConnectionCloses *prometheus.CounterVec

	// Wire metrics
	FramesSent     *prometheus.CounterVec
	FramesReceived *prometheus.CounterVec
	BytesSent      prometheus.Counter
	BytesReceived  prometheus.Counter

	// Dispatch metrics
	Subscribers prometheus.Gauge

	// Operation metrics
	CallsPending  prometheus.Gauge
	CallDuration  *prometheus.HistogramVec
	CallResults   *prometheus.CounterVec
	Redirects     prometheus.Counter
	RequestsFound *prometheus.GaugeVec
}

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// Default returns the metrics registered with the default Prometheus
// registry.
func Default() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = NewMetrics()
	})
	return defaultMetrics
}

func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ConnectionsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_open",
			Help:      "Number of currently open node connections",
		}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of node connections established",
		}),
		ConnectionCloses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_closes_total",
			Help:      "Total connection closes by reason",
		}, []string{"reason"}),

		FramesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Total frames sent by message name",
		}, []string{"name"}),
		FramesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Total frames received by message name",
		}, []string{"name"}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Total encoded bytes sent",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payload_bytes_received_total",
			Help:      "Total payload bytes received",
		}),

		Subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Number of attached event subscribers",
		}),

		CallsPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calls_pending",
			Help:      "Number of operations waiting for their reply",
		}),
		CallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Histogram of operation round trip time in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
		}, []string{"operation"}),
		CallResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_results_total",
			Help:      "Total operations by result",
		}, []string{"operation", "result"}),
		Redirects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Total fetch redirects followed",
		}),
		RequestsFound: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "persistent_requests",
			Help:      "Persistent requests seen by the last listing, by kind and state",
		}, []string{"kind", "state"}),
	}
}

func (m *Metrics) RecordConnect() {
	m.ConnectionsOpen.Inc()
	m.ConnectionsTotal.Inc()
}

func (m *Metrics) RecordClose(reason string) {
	m.ConnectionsOpen.Dec()
	m.ConnectionCloses.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordFrameSent(name string, bytes int) {
	m.FramesSent.WithLabelValues(name).Inc()
	m.BytesSent.Add(float64(bytes))
}

func (m *Metrics) RecordFrameReceived(name string, payloadBytes int) {
	m.FramesReceived.WithLabelValues(name).Inc()
	m.BytesReceived.Add(float64(payloadBytes))
}

func (m *Metrics) RecordSubscribe() {
	m.Subscribers.Inc()
}

func (m *Metrics) RecordUnsubscribe() {
	m.Subscribers.Dec()
}

func (m *Metrics) RecordCallStart() {
	m.CallsPending.Inc()
}

func (m *Metrics) RecordCallDone(operation, result string, seconds float64) {
	m.CallsPending.Dec()
	m.CallDuration.WithLabelValues(operation).Observe(seconds)
	m.CallResults.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) RecordRedirect() {
	m.Redirects.Inc()
}

func (m *Metrics) SetRequests(kind, state string, count int) {
	m.RequestsFound.WithLabelValues(kind, state).Set(float64(count))
}
