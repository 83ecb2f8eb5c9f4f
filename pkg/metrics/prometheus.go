package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	exchangeRequests *prometheus.CounterVec
	exchangeLatency  *prometheus.HistogramVec
	errorsTotal      *prometheus.CounterVec
	indicatorRuns    *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	activeViews      prometheus.Gauge
	sinkPublished    *prometheus.CounterVec
}

// New creates a recorder on the default prometheus registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		exchangeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kryptomarket_exchange_requests_total",
				Help: "Requests sent to the exchange REST API",
			},
			[]string{"endpoint", "status"},
		),
		exchangeLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kryptomarket_exchange_request_duration_seconds",
				Help:    "Latency of exchange REST calls including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kryptomarket_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		indicatorRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kryptomarket_indicator_computations_total",
				Help: "Indicator series computed",
			},
			[]string{"interval"},
		),
		lastPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kryptomarket_last_price",
				Help: "Last close seen for a symbol",
			},
			[]string{"symbol"},
		),
		activeViews: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "kryptomarket_active_views",
				Help: "Live analysis views with at least one watcher",
			},
		),
		sinkPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kryptomarket_sink_published_total",
				Help: "Analysis snapshots handed to a sink",
			},
			[]string{"sink", "ok"},
		),
	}
}

// RecordExchangeRequest records one logical exchange call and its latency.
func (r *Recorder) RecordExchangeRequest(endpoint string, status int, seconds float64) {
	r.exchangeRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	r.exchangeLatency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordIndicator(interval string) {
	r.indicatorRuns.WithLabelValues(interval).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) SetActiveViews(n int) {
	r.activeViews.Set(float64(n))
}

func (r *Recorder) RecordSinkPublish(sink string, ok bool) {
	r.sinkPublished.WithLabelValues(sink, strconv.FormatBool(ok)).Inc()
}
