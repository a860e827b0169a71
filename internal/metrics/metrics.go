package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/serroba/sliding-window/internal/window"
)

// Outcome label values.
const (
	OutcomeAllowed  = "allowed"
	OutcomeExceeded = "exceeded"
	OutcomeCounted  = "counted"
	OutcomeError    = "error"
)

// Metrics holds the sliding window collectors.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sliding_window_operations_total",
			Help: "Sliding window operations by mode and outcome.",
		}, []string{"mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sliding_window_operation_duration_seconds",
			Help:    "Time spent in the sliding window store.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"mode"}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register sliding window metrics: %w", err)
		}
	}

	return m, nil
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// InstrumentedStore records every operation passing through to next.
type InstrumentedStore struct {
	next    window.Store
	metrics *Metrics
}

// NewInstrumentedStore wraps next with metrics.
func NewInstrumentedStore(next window.Store, m *Metrics) *InstrumentedStore {
	return &InstrumentedStore{
		next:    next,
		metrics: m,
	}
}

func (s *InstrumentedStore) Apply(ctx context.Context, req window.Request) (window.Result, error) {
	start := time.Now()
	res, err := s.next.Apply(ctx, req)

	mode := req.Mode.String()
	s.metrics.duration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	s.metrics.operations.WithLabelValues(mode, outcome(req.Mode, res, err)).Inc()

	return res, err
}

func outcome(mode window.Mode, res window.Result, err error) string {
	switch {
	case err != nil:
		return OutcomeError
	case mode == window.ModeCount:
		return OutcomeCounted
	case res.Exceeded:
		return OutcomeExceeded
	default:
		return OutcomeAllowed
	}
}

// Compile-time check.
var _ window.Store = (*InstrumentedStore)(nil)
