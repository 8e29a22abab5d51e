// Package telemetry provides the Prometheus collectors of the dashboard API.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// MetricsNamespace is the namespace for all dashboard metrics.
	MetricsNamespace = "dashboard"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal *prometheus.CounterVec
	QueryDuration     *prometheus.HistogramVec
	FilteredRows      prometheus.Histogram
	DatasetRecords    prometheus.Gauge
	ActiveFilters     prometheus.Gauge
}

// NewMetrics creates and registers the collectors on reg (the default registerer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "query_duration_seconds",
				Help:      "Time spent filtering, sorting and paginating",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"source"},
		),
		FilteredRows: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "filtered_rows",
				Help:      "Rows left after filters and search",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		DatasetRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: MetricsNamespace,
				Name:      "dataset_records",
				Help:      "Records in the loaded dataset",
			},
		),
		ActiveFilters: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: MetricsNamespace,
				Name:      "active_filters",
				Help:      "Predicates in the interactive view's filter list",
			},
		),
	}
}

// ObserveRequest counts one served request.
func (m *Metrics) ObserveRequest(route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ObserveQuery records one pipeline run.
func (m *Metrics) ObserveQuery(source string, took time.Duration, rows int) {
	m.QueryDuration.WithLabelValues(source).Observe(took.Seconds())
	m.FilteredRows.Observe(float64(rows))
}
