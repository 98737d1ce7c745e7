package store

import (
	"context"
	"time"

	"inventario/pkg/metrics"
)

// Instrumented wraps a DocumentStore and records operation counts and latencies.
type Instrumented struct {
	next    DocumentStore
	metrics *metrics.Metrics
}

// NewInstrumented decorates next with metrics.
func NewInstrumented(next DocumentStore, m *metrics.Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (s *Instrumented) observe(op, collection string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.StoreOperations.WithLabelValues(op, collection, outcome).Inc()
	s.metrics.StoreOperationDuration.WithLabelValues(op, collection).Observe(time.Since(start).Seconds())
}

func (s *Instrumented) Find(ctx context.Context, q Query) ([]Document, error) {
	start := time.Now()
	docs, err := s.next.Find(ctx, q)
	s.observe("find", q.Collection, start, err)
	return docs, err
}

func (s *Instrumented) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	start := time.Now()
	id, err := s.next.Add(ctx, collection, fields)
	s.observe("add", collection, start, err)
	return id, err
}

func (s *Instrumented) Update(ctx context.Context, collection, id string, fields Fields) error {
	start := time.Now()
	err := s.next.Update(ctx, collection, id, fields)
	s.observe("update", collection, start, err)
	return err
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}
