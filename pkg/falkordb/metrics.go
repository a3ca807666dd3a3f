package falkordb

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client's prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	QueriesTotal    *prometheus.CounterVec
	QueryDuration   *prometheus.HistogramVec
	SchemaRefreshes *prometheus.CounterVec
	StaleRetries    *prometheus.CounterVec
}

// NewMetrics creates the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "falkorgraph"
	}
	return &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "queries_total",
				Help:      "Total number of graph queries by outcome",
			},
			[]string{"graph", "command", "status"},
		),

		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "query_duration_seconds",
				Help:      "Graph query round trip duration in seconds, decoding included",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"graph", "command"},
		),

		SchemaRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "schema",
				Name:      "refreshes_total",
				Help:      "Total number of schema dictionary fetches",
			},
			[]string{"graph", "kind"},
		),

		StaleRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "schema",
				Name:      "stale_retries_total",
				Help:      "Total number of queries resent after a stale schema signal",
			},
			[]string{"graph"},
		),
	}
}

// Register registers every collector with reg. Collectors another client
// already registered under the same names are adopted instead.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	var err error
	if m.QueriesTotal, err = register(reg, m.QueriesTotal); err != nil {
		return err
	}
	if m.QueryDuration, err = register(reg, m.QueryDuration); err != nil {
		return err
	}
	if m.SchemaRefreshes, err = register(reg, m.SchemaRefreshes); err != nil {
		return err
	}
	if m.StaleRetries, err = register(reg, m.StaleRetries); err != nil {
		return err
	}
	return nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

func (m *Metrics) observeQuery(graph, cmd string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(graph, cmd, queryStatus(err)).Inc()
	m.QueryDuration.WithLabelValues(graph, cmd).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeRefresh(graph, kind string) {
	if m == nil {
		return
	}
	m.SchemaRefreshes.WithLabelValues(graph, kind).Inc()
}

func (m *Metrics) observeStaleRetry(graph string) {
	if m == nil {
		return
	}
	m.StaleRetries.WithLabelValues(graph).Inc()
}

func queryStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsSchemaStale(err):
		return "stale"
	case IsQueryError(err):
		return "query_error"
	case IsTransportError(err):
		return "transport_error"
	case IsDecodeError(err):
		return "decode_error"
	default:
		return "error"
	}
}
