package repository

import (
	"context"
	"errors"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

// Middleware wraps a Store to add a cross-cutting concern.
type Middleware func(Store) Store

// Chain decorates base with mws. The first middleware is the outermost one,
// so Chain(s, a, b) calls a, then b, then s.
func Chain(base Store, mws ...Middleware) Store {
	s := base
	for i := len(mws) - 1; i >= 0; i-- {
		s = mws[i](s)
	}
	return s
}

// timeoutStore bounds every storage call by a fixed deadline.
type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// TimeoutMiddleware bounds each call with timeout. An expired deadline is
// reported as ErrStorage.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next Store) Store {
		if timeout <= 0 {
			return next
		}
		return &timeoutStore{next: next, timeout: timeout}
	}
}

func (t *timeoutStore) Insert(ctx context.Context, category string, e model.ScoreEntry) (model.ScoreEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	out, err := t.next.Insert(ctx, category, e)
	return out, deadlineToStorage("insert", err)
}

func (t *timeoutStore) TopN(ctx context.Context, category string, n int) ([]model.ScoreEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	out, err := t.next.TopN(ctx, category, n)
	return out, deadlineToStorage("top_n", err)
}

func (t *timeoutStore) Categories(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	out, err := t.next.Categories(ctx)
	return out, deadlineToStorage("categories", err)
}

func (t *timeoutStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	n, err := Count(ctx, t.next)
	return n, deadlineToStorage("count", err)
}

func (t *timeoutStore) Close() error { return t.next.Close() }

func deadlineToStorage(op string, err error) error {
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return WrapStorage(op, err)
	}
	return err
}

// meteredStore records latency and failures of every call.
type meteredStore struct {
	next    Store
	backend string
}

// MetricsMiddleware reports storage latency and errors labelled with backend.
func MetricsMiddleware(backend string) Middleware {
	return func(next Store) Store {
		return &meteredStore{next: next, backend: backend}
	}
}

func (m *meteredStore) observe(op string, start time.Time, err error) {
	metrics.RecordStorageLatency(m.backend, op, float64(time.Since(start).Microseconds())/1000)
	if err != nil && !errors.Is(err, ErrCountUnsupported) {
		metrics.RecordStorageError(m.backend, op)
	}
}

func (m *meteredStore) Insert(ctx context.Context, category string, e model.ScoreEntry) (model.ScoreEntry, error) {
	start := time.Now()
	out, err := m.next.Insert(ctx, category, e)
	m.observe("insert", start, err)
	return out, err
}

func (m *meteredStore) TopN(ctx context.Context, category string, n int) ([]model.ScoreEntry, error) {
	start := time.Now()
	out, err := m.next.TopN(ctx, category, n)
	m.observe("top_n", start, err)
	return out, err
}

func (m *meteredStore) Categories(ctx context.Context) ([]string, error) {
	start := time.Now()
	out, err := m.next.Categories(ctx)
	m.observe("categories", start, err)
	return out, err
}

func (m *meteredStore) Count(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := Count(ctx, m.next)
	m.observe("count", start, err)
	return n, err
}

func (m *meteredStore) Close() error { return m.next.Close() }
