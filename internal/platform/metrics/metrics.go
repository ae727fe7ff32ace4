package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the detector. Every method is safe
// to call on a nil receiver so components can run without metrics in tests.
type Metrics struct {
	// Duration of a full tick: fetch, fan-out, join and dispatch.
	TickDuration prometheus.Histogram

	// Ticks by result: "idle", "processed", "skipped" (lease held elsewhere).
	Ticks *prometheus.CounterVec

	// Transactions by outcome: "legitimate", "fraudulent".
	Outcomes *prometheus.CounterVec

	// Failed bulk dispatch calls by action: "verify", "reject".
	DispatchFailures *prometheus.CounterVec

	// Resolver chunks that failed and contributed no entries, by entity.
	ChunkFailures *prometheus.CounterVec

	// Bounded waits that ran out of time, by stage: "resolve", "validate", "evaluate".
	Timeouts *prometheus.CounterVec

	// Upstream request latency by service and result category.
	UpstreamLatency *prometheus.HistogramVec

	// Circuit breaker state per upstream: 0 closed, 1 half-open, 2 open.
	BreakerState *prometheus.GaugeVec

	// Tick lease renewals that failed, by reason: "error", "lost".
	LeaseRenewalFailures *prometheus.CounterVec
}

// New creates the detector metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "detector_tick_duration_seconds",
			Help:    "Duration of one processor tick including dispatch",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		Ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "detector_ticks_total",
			Help: "Processor ticks by result",
		}, []string{"result"}),

		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "detector_transactions_total",
			Help: "Evaluated transactions by outcome",
		}, []string{"outcome"}),

		DispatchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "detector_dispatch_failures_total",
			Help: "Failed bulk verify/reject calls",
		}, []string{"action"}),

		ChunkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "detector_resolver_chunk_failures_total",
			Help: "Resolver chunks skipped because the lookup failed",
		}, []string{"entity"}),

		Timeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "detector_timeouts_total",
			Help: "Bounded waits that timed out and failed closed",
		}, []string{"stage"}),

		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "detector_upstream_request_duration_seconds",
			Help:    "Duration of upstream registry requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"service", "result"}),

		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "detector_upstream_breaker_state",
			Help: "Circuit breaker state per upstream (0 closed, 1 half-open, 2 open)",
		}, []string{"service"}),

		LeaseRenewalFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "detector_lease_renewal_failures_total",
			Help: "Tick lease renewals that errored or found the lease gone",
		}, []string{"reason"}),
	}
}

// ObserveTick records a tick's duration and result.
func (m *Metrics) ObserveTick(result string, d time.Duration) {
	if m != nil {
		m.Ticks.WithLabelValues(result).Inc()
		m.TickDuration.Observe(d.Seconds())
	}
}

// IncrementTick records a tick that did no timed work.
func (m *Metrics) IncrementTick(result string) {
	if m != nil {
		m.Ticks.WithLabelValues(result).Inc()
	}
}

// AddOutcomes records n transactions with the given outcome.
func (m *Metrics) AddOutcomes(outcome string, n int) {
	if m != nil && n > 0 {
		m.Outcomes.WithLabelValues(outcome).Add(float64(n))
	}
}

// IncrementDispatchFailure records a failed verify or reject call.
func (m *Metrics) IncrementDispatchFailure(action string) {
	if m != nil {
		m.DispatchFailures.WithLabelValues(action).Inc()
	}
}

// IncrementChunkFailure records a skipped resolver chunk.
func (m *Metrics) IncrementChunkFailure(entity string) {
	if m != nil {
		m.ChunkFailures.WithLabelValues(entity).Inc()
	}
}

// IncrementTimeout records a bounded wait that failed closed.
func (m *Metrics) IncrementTimeout(stage string) {
	if m != nil {
		m.Timeouts.WithLabelValues(stage).Inc()
	}
}

// ObserveUpstream records the latency of one upstream request.
func (m *Metrics) ObserveUpstream(service, result string, d time.Duration) {
	if m != nil {
		m.UpstreamLatency.WithLabelValues(service, result).Observe(d.Seconds())
	}
}

// SetBreakerState records the breaker state of an upstream.
func (m *Metrics) SetBreakerState(service string, state int) {
	if m != nil {
		m.BreakerState.WithLabelValues(service).Set(float64(state))
	}
}

// IncrementLeaseRenewalFailure records a tick lease renewal that did not
// extend the lease.
func (m *Metrics) IncrementLeaseRenewalFailure(reason string) {
	if m != nil {
		m.LeaseRenewalFailures.WithLabelValues(reason).Inc()
	}
}
