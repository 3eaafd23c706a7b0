// Package metrics provides Prometheus metrics for hashstore
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for hashstore
type Metrics struct {
	// gRPC request metrics
	GrpcRequestsTotal    *prometheus.CounterVec
	GrpcRequestDuration  *prometheus.HistogramVec
	GrpcRequestsInFlight prometheus.Gauge

	// Store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	// Repository metrics
	RepoOperationsTotal   *prometheus.CounterVec
	RepoOperationDuration *prometheus.HistogramVec
	IndexMutationsTotal   *prometheus.CounterVec
	TTLResolutionsTotal   *prometheus.CounterVec

	// Server metrics
	ServerUptimeSeconds prometheus.Gauge
	ServerStartTime     time.Time
}

// NewMetrics creates all metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		ServerStartTime: time.Now(),
	}

	// gRPC request metrics
	m.GrpcRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hashstore_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status"},
	)

	m.GrpcRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hashstore_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	m.GrpcRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "hashstore_grpc_requests_in_flight",
			Help: "Number of gRPC requests currently being processed",
		},
	)

	// Store metrics
	m.StoreOperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hashstore_store_operations_total",
			Help: "Total number of key-value store operations",
		},
		[]string{"operation", "status"},
	)

	m.StoreOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hashstore_store_operation_duration_seconds",
			Help:    "Duration of key-value store operations in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	// Repository metrics
	m.RepoOperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hashstore_repository_operations_total",
			Help: "Total number of repository operations",
		},
		[]string{"operation", "namespace", "status"},
	)

	m.RepoOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hashstore_repository_operation_duration_seconds",
			Help:    "Duration of repository operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation", "namespace"},
	)

	m.IndexMutationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hashstore_index_mutations_total",
			Help: "Total number of index set mutations",
		},
		[]string{"namespace", "action"},
	)

	m.TTLResolutionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hashstore_ttl_resolutions_total",
			Help: "Total number of expiration resolutions by source",
		},
		[]string{"namespace", "source"},
	)

	// Server metrics
	m.ServerUptimeSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "hashstore_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
	)

	return m
}

// UpdateUptime refreshes the uptime gauge every interval until ctx is done
func (m *Metrics) UpdateUptime(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.ServerUptimeSeconds.Set(time.Since(m.ServerStartTime).Seconds())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordGrpcRequest records a gRPC request with its status
func (m *Metrics) RecordGrpcRequest(method string, status string, duration time.Duration) {
	m.GrpcRequestsTotal.WithLabelValues(method, status).Inc()
	m.GrpcRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveStoreOperation records a store call; it makes Metrics a store observer
func (m *Metrics) ObserveStoreOperation(operation string, duration time.Duration, err error) {
	m.StoreOperationsTotal.WithLabelValues(operation, status(err)).Inc()
	m.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRepoOperation records a repository operation
func (m *Metrics) RecordRepoOperation(operation, namespace, status string, duration time.Duration) {
	m.RepoOperationsTotal.WithLabelValues(operation, namespace, status).Inc()
	if duration > 0 {
		m.RepoOperationDuration.WithLabelValues(operation, namespace).Observe(duration.Seconds())
	}
}

// RecordIndexMutation counts index sets touched by one save or delete
func (m *Metrics) RecordIndexMutation(namespace, action string, count int) {
	if count > 0 {
		m.IndexMutationsTotal.WithLabelValues(namespace, action).Add(float64(count))
	}
}

// RecordTTLResolution counts where a save's expiration came from
func (m *Metrics) RecordTTLResolution(namespace, source string) {
	m.TTLResolutionsTotal.WithLabelValues(namespace, source).Inc()
}
