package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Terminal session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsClosed  prometheus.Counter
	SessionErrors   *prometheus.CounterVec

	// PTY traffic
	PTYBytes *prometheus.CounterVec

	// Plugin pipeline
	HookDuration *prometheus.HistogramVec

	// Output listeners
	ListenerStops *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics creates a metrics collector registered on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dogeterm_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dogeterm_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dogeterm_sessions_active",
				Help: "Number of registered terminal sessions",
			},
		),
		SessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dogeterm_sessions_created_total",
				Help: "Total number of terminal sessions created",
			},
		),
		SessionsClosed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dogeterm_sessions_closed_total",
				Help: "Total number of terminal sessions closed",
			},
		),
		SessionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dogeterm_session_errors_total",
				Help: "Terminal operation failures by operation and kind",
			},
			[]string{"op", "kind"},
		),

		PTYBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dogeterm_pty_bytes_total",
				Help: "Bytes moved through PTY masters",
			},
			[]string{"direction"},
		),

		HookDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dogeterm_plugin_hook_duration_seconds",
				Help:    "Time spent running a hook across a plugin chain",
				Buckets: []float64{.00001, .0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"hook"},
		),

		ListenerStops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dogeterm_listener_stops_total",
				Help: "Output listener terminations by reason",
			},
			[]string{"reason"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dogeterm_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dogeterm_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dogeterm_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SessionCreated records a new session and the resulting registry size
func (m *Metrics) SessionCreated(active int) {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
	m.SessionsActive.Set(float64(active))
}

// SessionClosed records a closed session and the resulting registry size
func (m *Metrics) SessionClosed(active int) {
	if m == nil {
		return
	}
	m.SessionsClosed.Inc()
	m.SessionsActive.Set(float64(active))
}

// RecordError records a failed terminal operation
func (m *Metrics) RecordError(op, kind string) {
	if m == nil {
		return
	}
	m.SessionErrors.WithLabelValues(op, kind).Inc()
}

// AddBytesRead counts bytes read from a PTY master
func (m *Metrics) AddBytesRead(n int) {
	if m == nil {
		return
	}
	m.PTYBytes.WithLabelValues("read").Add(float64(n))
}

// AddBytesWritten counts bytes written to a PTY master
func (m *Metrics) AddBytesWritten(n int) {
	if m == nil {
		return
	}
	m.PTYBytes.WithLabelValues("write").Add(float64(n))
}

// ListenerStopped records why an output listener stopped
func (m *Metrics) ListenerStopped(reason string) {
	if m == nil {
		return
	}
	m.ListenerStops.WithLabelValues(reason).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}
