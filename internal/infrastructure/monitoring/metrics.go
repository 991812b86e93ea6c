package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the exchange subsystem.
type Metrics struct {
	// Sender metrics
	ChunksSent   *prometheus.CounterVec
	BytesSent    *prometheus.CounterVec
	RowsSent     *prometheus.CounterVec
	SendDuration *prometheus.HistogramVec

	// Receiver metrics
	ChunksReceived *prometheus.CounterVec
	BytesReceived  *prometheus.CounterVec
	RecvDuration   *prometheus.HistogramVec

	// Lifecycle metrics
	FinishTotal      *prometheus.CounterVec
	RegisterDuration prometheus.Histogram
	QueueDepth       *prometheus.GaugeVec
	ExchangeLogTotal prometheus.Counter
}

// NewMetrics creates a metrics collector registered with the default
// Prometheus registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a metrics collector registered with reg. Tests
// pass a fresh registry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ChunksSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_chunks_sent_total",
				Help: "Total number of chunks accepted by broadcast channels",
			},
			[]string{"exchange"},
		),
		BytesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_bytes_sent_total",
				Help: "Total uncompressed bytes accepted by broadcast channels",
			},
			[]string{"exchange"},
		),
		RowsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_rows_sent_total",
				Help: "Total rows accepted by broadcast channels",
			},
			[]string{"exchange"},
		),
		SendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exchange_send_duration_seconds",
				Help:    "Send call duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"exchange"},
		),
		ChunksReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_chunks_received_total",
				Help: "Total number of chunks delivered to consumers",
			},
			[]string{"exchange"},
		),
		BytesReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_bytes_received_total",
				Help: "Total uncompressed bytes delivered to consumers",
			},
			[]string{"exchange"},
		),
		RecvDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exchange_recv_duration_seconds",
				Help:    "Recv call duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"exchange"},
		),
		FinishTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_finish_total",
				Help: "Total channel finish transitions by status code and race outcome",
			},
			[]string{"code", "modifier"},
		),
		RegisterDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "exchange_register_duration_seconds",
				Help:    "Sender registration rendezvous duration in seconds",
				Buckets: []float64{.001, .01, .1, .5, 1, 5, 30},
			},
		),
		QueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "exchange_queue_depth",
				Help: "Packets currently buffered in a channel transport queue",
			},
			[]string{"exchange"},
		),
		ExchangeLogTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "exchange_log_records_total",
				Help: "Total exchange log records emitted at channel teardown",
			},
		),
	}
}

// RecordSend records a successful chunk send.
func (m *Metrics) RecordSend(exchange string, rows int, bytes int64, duration time.Duration) {
	m.ChunksSent.WithLabelValues(exchange).Inc()
	m.RowsSent.WithLabelValues(exchange).Add(float64(rows))
	m.BytesSent.WithLabelValues(exchange).Add(float64(bytes))
	m.SendDuration.WithLabelValues(exchange).Observe(duration.Seconds())
}

// RecordRecv records a successful chunk receive.
func (m *Metrics) RecordRecv(exchange string, bytes int64, duration time.Duration) {
	m.ChunksReceived.WithLabelValues(exchange).Inc()
	m.BytesReceived.WithLabelValues(exchange).Add(float64(bytes))
	m.RecvDuration.WithLabelValues(exchange).Observe(duration.Seconds())
}

// RecordFinish records a finish transition outcome.
func (m *Metrics) RecordFinish(code string, modifier bool) {
	label := "loser"
	if modifier {
		label = "winner"
	}
	m.FinishTotal.WithLabelValues(code, label).Inc()
}

// RecordRegister records a sender registration duration.
func (m *Metrics) RecordRegister(duration time.Duration) {
	m.RegisterDuration.Observe(duration.Seconds())
}

// SetQueueDepth sets the buffered packet count for an exchange.
func (m *Metrics) SetQueueDepth(exchange string, depth int) {
	m.QueueDepth.WithLabelValues(exchange).Set(float64(depth))
}

// IncExchangeLog increments the emitted exchange log record counter.
func (m *Metrics) IncExchangeLog() {
	m.ExchangeLogTotal.Inc()
}
