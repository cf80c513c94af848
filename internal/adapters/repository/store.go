// Package repository defines the score store contract, its in-memory
// implementation and the middleware that decorates every backend.
package repository

import (
	"context"

	"github.com/okian/podium/internal/domain/model"
)

// Store holds per-category ordered score sets.
//
// Implementations must be safe for concurrent use. A single Insert is
// indivisible and a TopN read observes a consistent state of its category.
type Store interface {
	// Insert appends e to category and returns the stored entry with Seq
	// assigned. Duplicate names and scores are accepted.
	Insert(ctx context.Context, category string, e model.ScoreEntry) (model.ScoreEntry, error)

	// TopN returns at most n entries of category ordered by score desc,
	// ties by insertion order. An unknown category yields an empty slice.
	TopN(ctx context.Context, category string, n int) ([]model.ScoreEntry, error)

	// Categories lists every category that received at least one insert,
	// sorted ascending.
	Categories(ctx context.Context) ([]string, error)

	Close() error
}

// Counter is implemented by stores that can report how many entries they hold.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Count asks s for its entry count, or returns ErrCountUnsupported.
func Count(ctx context.Context, s Store) (int, error) {
	c, ok := s.(Counter)
	if !ok {
		return 0, ErrCountUnsupported
	}
	return c.Count(ctx)
}
