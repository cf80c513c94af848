// Package ranking builds leaderboards on top of a score source: one board
// per category and a merged board across categories.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

const tracerName = "github.com/okian/podium/internal/domain/ranking"

// Source yields the top entries of one category in board order.
// repository.Store satisfies it.
type Source interface {
	TopN(ctx context.Context, category string, n int) ([]model.ScoreEntry, error)
}

// CategoryRanker serves the board of a single category.
type CategoryRanker struct {
	source   Source
	defaultN int
}

// NewCategoryRanker returns a ranker reading from source.
func NewCategoryRanker(source Source, opts ...Option) *CategoryRanker {
	r := &CategoryRanker{source: source, defaultN: defaultN}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultN is the board size used for n <= 0.
func (r *CategoryRanker) DefaultN() int { return r.defaultN }

// TopN returns the top n entries of category; n <= 0 means DefaultN.
func (r *CategoryRanker) TopN(ctx context.Context, category string, n int) ([]model.ScoreEntry, error) {
	if n <= 0 {
		n = r.defaultN
	}
	return r.source.TopN(ctx, category, n)
}

// UnifiedRanker merges per-category boards into one.
type UnifiedRanker struct {
	categories  *CategoryRanker
	fanoutLimit int
}

// NewUnifiedRanker returns a ranker that fans out over categories.
func NewUnifiedRanker(categories *CategoryRanker, opts ...UnifiedOption) *UnifiedRanker {
	u := &UnifiedRanker{categories: categories, fanoutLimit: defaultFanoutLimit}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// TopNOverall fetches the top n of every category concurrently and returns
// the global top n. A failure in any category fails the whole call.
func (u *UnifiedRanker) TopNOverall(ctx context.Context, n int, categories []string) ([]model.ScoreEntry, error) {
	if n <= 0 {
		n = u.categories.DefaultN()
	}
	categories = dedupe(categories)
	if len(categories) == 0 {
		return []model.ScoreEntry{}, nil
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "UnifiedRanker.TopNOverall")
	defer span.End()
	span.SetAttributes(
		attribute.Int("ranking.limit", n),
		attribute.StringSlice("ranking.categories", categories),
	)

	start := time.Now()
	boards := make([][]model.ScoreEntry, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.fanoutLimit)
	for i, category := range categories {
		g.Go(func() error {
			board, err := u.categories.TopN(gctx, category, n)
			if err != nil {
				return fmt.Errorf("category %q: %w", category, err)
			}
			boards[i] = board
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := Merge(boards, n)
	metrics.RecordUnifiedFanout(len(categories))
	metrics.RecordUnifiedMergeLatency(float64(time.Since(start).Microseconds()) / 1000)
	span.SetAttributes(attribute.Int("ranking.results", len(out)))
	return out, nil
}

type ranked struct {
	entry    model.ScoreEntry
	rank     int // position within its category board
	category int // position of the category in the request
}

// Merge combines per-category boards, each already in board order, into the
// global top n: score desc, then per-category rank asc, then category
// position asc.
func Merge(boards [][]model.ScoreEntry, n int) []model.ScoreEntry {
	total := 0
	for _, b := range boards {
		total += len(b)
	}
	all := make([]ranked, 0, total)
	for ci, b := range boards {
		for ri, e := range b {
			all = append(all, ranked{entry: e, rank: ri, category: ci})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.entry.Score != b.entry.Score {
			return a.entry.Score > b.entry.Score
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		return a.category < b.category
	})

	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	out := make([]model.ScoreEntry, len(all))
	for i, r := range all {
		out[i] = r.entry
	}
	return out
}

// dedupe keeps the first occurrence of every category.
func dedupe(categories []string) []string {
	seen := make(map[string]struct{}, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
