package metrics

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bucketfm/bucketfm/pkg/storage"
)

// StorageMetrics holds the collectors for backend storage traffic.
type StorageMetrics struct {
	// Operations counts backend calls by operation and status.
	Operations *prometheus.CounterVec

	// Duration observes backend call latency by operation.
	Duration *prometheus.HistogramVec

	// Bytes counts payload bytes moved through the store by direction
	// (read or write).
	Bytes *prometheus.CounterVec
}

// NewStorage creates and registers the storage collectors.
func NewStorage(reg prometheus.Registerer) *StorageMetrics {
	m := &StorageMetrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bucketfm",
			Name:      "storage_operations_total",
			Help:      "Backend storage calls by operation and status.",
		}, []string{"operation", "status"}),

		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bucketfm",
			Name:      "storage_operation_duration_seconds",
			Help:      "Backend storage call latency by operation.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),

		Bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bucketfm",
			Name:      "storage_bytes_total",
			Help:      "Payload bytes moved through the store by direction.",
		}, []string{"direction"}),
	}

	reg.MustRegister(m.Operations, m.Duration, m.Bytes)

	return m
}

// observe records one completed backend call.
func (m *StorageMetrics) observe(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.Operations.WithLabelValues(operation, status).Inc()
	m.Duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// InstrumentStore wraps a store so every backend call is observed.
func InstrumentStore(inner storage.Store, m *StorageMetrics) storage.Store {
	return &instrumentedStore{inner: inner, metrics: m}
}

type instrumentedStore struct {
	inner   storage.Store
	metrics *StorageMetrics
}

func (s *instrumentedStore) List(ctx context.Context, prefix string, recursive bool) (*storage.Listing, error) {
	start := time.Now()
	listing, err := s.inner.List(ctx, prefix, recursive)
	s.metrics.observe("list", start, err)

	return listing, err
}

func (s *instrumentedStore) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	start := time.Now()
	err := s.inner.Put(ctx, key, body, size)
	s.metrics.observe("put", start, err)

	if err == nil && size > 0 {
		s.metrics.Bytes.WithLabelValues("write").Add(float64(size))
	}

	return err
}

func (s *instrumentedStore) Get(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	start := time.Now()
	body, info, err := s.inner.Get(ctx, key)
	s.metrics.observe("get", start, err)

	if err != nil {
		return nil, nil, err
	}

	return &countingReadCloser{inner: body, metrics: s.metrics}, info, nil
}

func (s *instrumentedStore) Head(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	start := time.Now()
	info, err := s.inner.Head(ctx, key)
	s.metrics.observe("head", start, err)

	return info, err
}

func (s *instrumentedStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	start := time.Now()
	err := s.inner.Copy(ctx, srcKey, dstKey)
	s.metrics.observe("copy", start, err)

	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, key)
	s.metrics.observe("delete", start, err)

	return err
}

func (s *instrumentedStore) DeleteBatch(ctx context.Context, keys []string) (map[string]error, error) {
	start := time.Now()
	failed, err := s.inner.DeleteBatch(ctx, keys)
	s.metrics.observe("delete_batch", start, err)

	return failed, err
}

// countingReadCloser accumulates bytes read from a download stream and
// records them when the stream is closed.
type countingReadCloser struct {
	inner   io.ReadCloser
	metrics *StorageMetrics
	read    int64
}

func (c *countingReadCloser) Read(p []byte) (int, error) {
	n, err := c.inner.Read(p)
	c.read += int64(n)

	return n, err
}

func (c *countingReadCloser) Close() error {
	if c.read > 0 {
		c.metrics.Bytes.WithLabelValues("read").Add(float64(c.read))
		c.read = 0
	}

	return c.inner.Close()
}
