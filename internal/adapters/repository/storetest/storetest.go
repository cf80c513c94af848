// Package storetest holds the behaviour every repository.Store backend must
// share. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/model"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) repository.Store

// boardView drops the fields a backend may legitimately fill differently.
var boardView = cmp.Options{
	cmpopts.IgnoreFields(model.ScoreEntry{}, "Seq", "ID", "CreatedAt"),
	cmpopts.EquateEmpty(),
}

// Entry builds a submission the way the service would before Insert.
func Entry(name string, score float64, category string) model.ScoreEntry {
	return model.ScoreEntry{
		Name:      name,
		Score:     score,
		Category:  category,
		CreatedAt: time.Now().UTC(),
		ID:        uuid.NewString(),
	}
}

func names(entries []model.ScoreEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("InsertThenTopN", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })

		stored, err := s.Insert(ctx, "easy", Entry("Ana", 90, "easy"))
		require.NoError(t, err)
		require.Equal(t, "Ana", stored.Name)
		require.Equal(t, "easy", stored.Category)

		got, err := s.TopN(ctx, "easy", 10)
		require.NoError(t, err)
		want := []model.ScoreEntry{{Name: "Ana", Score: 90, Category: "easy"}}
		if diff := cmp.Diff(want, got, boardView); diff != "" {
			t.Fatalf("board mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("OrderAndBound", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })

		scores := []float64{3, 17, -2, 42, 8, 0.5, 99, 17.25, 5, 61, 12, 7}
		for i, sc := range scores {
			_, err := s.Insert(ctx, "hard", Entry(fmt.Sprintf("p%02d", i), sc, "hard"))
			require.NoError(t, err)
		}

		got, err := s.TopN(ctx, "hard", 5)
		require.NoError(t, err)
		require.Equal(t, []string{"p06", "p09", "p03", "p07", "p01"}, names(got))

		all, err := s.TopN(ctx, "hard", 100)
		require.NoError(t, err)
		require.Len(t, all, len(scores))
		for i := 1; i < len(all); i++ {
			require.GreaterOrEqual(t, all[i-1].Score, all[i].Score)
		}
	})

	t.Run("TiesKeepInsertionOrder", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })

		for _, n := range []string{"first", "second", "third"} {
			_, err := s.Insert(ctx, "medium", Entry(n, 50, "medium"))
			require.NoError(t, err)
		}
		_, err := s.Insert(ctx, "medium", Entry("top", 51, "medium"))
		require.NoError(t, err)

		got, err := s.TopN(ctx, "medium", 10)
		require.NoError(t, err)
		require.Equal(t, []string{"top", "first", "second", "third"}, names(got))
	})

	t.Run("DuplicatesAccepted", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })

		for range 3 {
			_, err := s.Insert(ctx, "easy", Entry("Ana", 70, "easy"))
			require.NoError(t, err)
		}
		got, err := s.TopN(ctx, "easy", 10)
		require.NoError(t, err)
		require.Equal(t, []string{"Ana", "Ana", "Ana"}, names(got))
	})

	t.Run("CategoryIsolation", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })

		_, err := s.Insert(ctx, "easy", Entry("Ana", 90, "easy"))
		require.NoError(t, err)
		_, err = s.Insert(ctx, "hard", Entry("Bo", 95, "hard"))
		require.NoError(t, err)

		easy, err := s.TopN(ctx, "easy", 10)
		require.NoError(t, err)
		require.Equal(t, []string{"Ana"}, names(easy))
		for _, e := range easy {
			require.Equal(t, "easy", e.Category)
		}
	})

	t.Run("UnknownCategoryIsEmpty", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })

		got, err := s.TopN(ctx, "nightmare", 10)
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("InvalidLimit", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })

		_, err := s.TopN(ctx, "easy", 0)
		require.ErrorIs(t, err, repository.ErrInvalidLimit)
	})

	t.Run("ReadsAreIdempotent", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })

		for i, sc := range []float64{10, 30, 20} {
			_, err := s.Insert(ctx, "easy", Entry(fmt.Sprintf("p%d", i), sc, "easy"))
			require.NoError(t, err)
		}
		first, err := s.TopN(ctx, "easy", 10)
		require.NoError(t, err)
		second, err := s.TopN(ctx, "easy", 10)
		require.NoError(t, err)
		if diff := cmp.Diff(first, second, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
			t.Fatalf("consecutive reads differ (-first +second):\n%s", diff)
		}
	})

	t.Run("CategoriesSorted", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })

		for _, c := range []string{"medium", "easy", "hard", "easy"} {
			_, err := s.Insert(ctx, c, Entry("x", 1, c))
			require.NoError(t, err)
		}
		got, err := s.Categories(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"easy", "hard", "medium"}, got)
	})

	t.Run("ConcurrentInserts", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })

		const writers, each = 8, 10
		var wg sync.WaitGroup
		errs := make(chan error, writers*each)
		for w := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range each {
					_, err := s.Insert(ctx, "easy", Entry(fmt.Sprintf("w%d-%d", w, i), float64(w*each+i), "easy"))
					if err != nil {
						errs <- err
					}
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := s.TopN(ctx, "easy", writers*each)
		require.NoError(t, err)
		require.Len(t, got, writers*each)
		require.Equal(t, float64(writers*each-1), got[0].Score)

		if n, err := repository.Count(ctx, s); err == nil {
			require.Equal(t, writers*each, n)
		} else {
			require.ErrorIs(t, err, repository.ErrCountUnsupported)
		}
	})
}
