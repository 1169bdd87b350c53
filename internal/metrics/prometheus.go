package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink is the concrete Sink backing the gateway's /metrics
// endpoint, implementing exactly the counters and histograms spec §4.9
// names.
type PrometheusSink struct {
	requestsTotal    *prometheus.CounterVec
	rateLimitedTotal *prometheus.CounterVec
	ttft             *prometheus.HistogramVec
	requestDuration  *prometheus.HistogramVec
	tokensPerSecond  *prometheus.HistogramVec
}

// NewPrometheusSink constructs a PrometheusSink and registers its
// collectors against reg. Pass prometheus.DefaultRegisterer for normal
// process-wide use, or a fresh *prometheus.Registry in tests.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total gateway requests by provider, model, and terminal status.",
		}, []string{"provider", "model", "status"}),
		rateLimitedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Total requests rejected at admission for insufficient rate-limit tokens.",
		}, []string{"model", "selector"}),
		ttft: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ttft_seconds",
			Help:    "Time to first client byte, by provider and model.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "model"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Full request lifetime, RECEIVED to COMPLETE.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "model"}),
		tokensPerSecond: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tokens_per_second",
			Help:    "Output token throughput for completed requests.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"provider", "model"}),
	}
	reg.MustRegister(s.requestsTotal, s.rateLimitedTotal, s.ttft, s.requestDuration, s.tokensPerSecond)
	return s
}

func (s *PrometheusSink) RequestCompleted(provider, model, status string) {
	s.requestsTotal.WithLabelValues(provider, model, status).Inc()
}

func (s *PrometheusSink) RateLimited(model, selector string) {
	s.rateLimitedTotal.WithLabelValues(model, selector).Inc()
}

func (s *PrometheusSink) TimeToFirstByte(provider, model string, d time.Duration) {
	s.ttft.WithLabelValues(provider, model).Observe(d.Seconds())
}

func (s *PrometheusSink) RequestDuration(provider, model string, d time.Duration) {
	s.requestDuration.WithLabelValues(provider, model).Observe(d.Seconds())
}

func (s *PrometheusSink) TokensPerSecond(provider, model string, tps float64) {
	s.tokensPerSecond.WithLabelValues(provider, model).Observe(tps)
}
