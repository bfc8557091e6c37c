// Package metrics собирает Prometheus-метрики хранилища.
//
// Метрики необязательны: nil *Metrics допустим везде и ничего не делает.
package metrics

import (
	"GophDrive/internal/blob"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics — набор счётчиков и гистограмм сервиса.
type Metrics struct {
	registry *prometheus.Registry

	blobOps      *prometheus.CounterVec
	blobDuration *prometheus.HistogramVec
	blobBytes    *prometheus.CounterVec
	operations   *prometheus.CounterVec
	orphans      *prometheus.CounterVec
}

// New регистрирует метрики в собственном реестре вместе с метриками процесса и Go runtime.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		blobOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gophdrive_blob_operations_total",
			Help: "Blob store operations by operation and status",
		}, []string{"operation", "status"}),
		blobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gophdrive_blob_operation_duration_milliseconds",
			Help:    "Duration of blob store operations in milliseconds",
			Buckets: []float64{5, 10, 50, 100, 500, 1000, 5000, 30000},
		}, []string{"operation"}),
		blobBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gophdrive_blob_bytes_total",
			Help: "Bytes transferred to and from the blob store",
		}, []string{"operation"}),
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gophdrive_storage_operations_total",
			Help: "Storage service operations by operation and status",
		}, []string{"operation", "status"}),
		orphans: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gophdrive_orphan_blobs_total",
			Help: "Blobs left without metadata (or metadata without blob) after partial failures",
		}, []string{"operation"}),
	}
}

// ObserveOperation учитывает операцию с хранилищем blob'ов.
func (m *Metrics) ObserveOperation(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.blobOps.WithLabelValues(op, status(err)).Inc()
	m.blobDuration.WithLabelValues(op).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) RecordBytes(op string, n int64) {
	if m == nil {
		return
	}
	m.blobBytes.WithLabelValues(op).Add(float64(n))
}

// CountOperation учитывает пользовательскую операцию сервиса.
func (m *Metrics) CountOperation(op string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, status(err)).Inc()
}

// CountOrphan учитывает запись в журнале осиротевших blob'ов.
func (m *Metrics) CountOrphan(op string) {
	if m == nil {
		return
	}
	m.orphans.WithLabelValues(op).Inc()
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// BlobMetrics возвращает m как blob.Metrics; для nil — nil-интерфейс,
// чтобы blob.Instrument не оборачивал шлюз.
func (m *Metrics) BlobMetrics() blob.Metrics {
	if m == nil {
		return nil
	}
	return m
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, blob.ErrNotFound):
		return "not_found"
	case errors.Is(err, blob.ErrExists):
		return "exists"
	case blob.IsTransient(err):
		return "transient"
	default:
		return "error"
	}
}
