package rushdb

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics holds Prometheus metrics for API calls. A nil *clientMetrics
// records nothing.
type clientMetrics struct {
	requests     *prometheus.CounterVec   // By method, route and status
	duration     *prometheus.HistogramVec // By method and route
	transactions *prometheus.CounterVec   // By outcome: begun, committed, rolled_back
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &clientMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rushdb",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and response status",
		}, []string{"method", "route", "status"}), // status: HTTP code, "error" or "decode_error"

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rushdb",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "API request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),

		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rushdb",
			Subsystem: "client",
			Name:      "transactions_total",
			Help:      "Transaction lifecycle transitions confirmed by the server",
		}, []string{"outcome"}),
	}

	var err error
	if m.requests, err = registerOrReuse(reg, m.requests); err != nil {
		return nil, err
	}
	if m.duration, err = registerOrReuse(reg, m.duration); err != nil {
		return nil, err
	}
	if m.transactions, err = registerOrReuse(reg, m.transactions); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, returning the already registered collector
// when several clients share one registry.
func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *clientMetrics) recordRequest(method, route string, status int, err error, elapsed time.Duration) {
	if m == nil {
		return
	}

	label := strconv.Itoa(status)
	if e, ok := AsError(err); ok && e.Kind == KindDecode {
		label = "decode_error"
	} else if status == 0 {
		label = "error"
	}
	m.requests.WithLabelValues(method, route, label).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *clientMetrics) recordTransaction(outcome string) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(outcome).Inc()
}
