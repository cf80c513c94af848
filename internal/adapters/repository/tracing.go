package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/podium/internal/domain/model"
)

const tracerName = "github.com/okian/podium/internal/adapters/repository"

// tracedStore opens one span per storage call.
type tracedStore struct {
	next    Store
	backend string
	tracer  trace.Tracer
}

// TracingMiddleware creates a span for every call using the global
// OpenTelemetry tracer provider.
func TracingMiddleware(backend string) Middleware {
	return func(next Store) Store {
		return &tracedStore{next: next, backend: backend, tracer: otel.Tracer(tracerName)}
	}
}

func (t *tracedStore) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("store.backend", t.backend))
	span.SetAttributes(attrs...)
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *tracedStore) Insert(ctx context.Context, category string, e model.ScoreEntry) (model.ScoreEntry, error) {
	ctx, span := t.startSpan(ctx, "Store.Insert", attribute.String("store.category", category))
	out, err := t.next.Insert(ctx, category, e)
	if err == nil {
		span.SetAttributes(attribute.Int64("entry.seq", out.Seq))
	}
	endSpan(span, err)
	return out, err
}

func (t *tracedStore) TopN(ctx context.Context, category string, n int) ([]model.ScoreEntry, error) {
	ctx, span := t.startSpan(ctx, "Store.TopN",
		attribute.String("store.category", category),
		attribute.Int("store.limit", n))
	out, err := t.next.TopN(ctx, category, n)
	span.SetAttributes(attribute.Int("store.results", len(out)))
	endSpan(span, err)
	return out, err
}

func (t *tracedStore) Categories(ctx context.Context) ([]string, error) {
	ctx, span := t.startSpan(ctx, "Store.Categories")
	out, err := t.next.Categories(ctx)
	span.SetAttributes(attribute.Int("store.categories", len(out)))
	endSpan(span, err)
	return out, err
}

func (t *tracedStore) Count(ctx context.Context) (int, error) {
	ctx, span := t.startSpan(ctx, "Store.Count")
	n, err := Count(ctx, t.next)
	endSpan(span, err)
	return n, err
}

func (t *tracedStore) Close() error { return t.next.Close() }
