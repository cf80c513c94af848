package ranking_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/ranking"
)

// fakeSource keeps boards in memory and can fail or count calls per category.
type fakeSource struct {
	mu     sync.Mutex
	seq    int64
	boards map[string][]model.ScoreEntry
	fail   map[string]error
	calls  atomic.Int64
	limits []int
}

func newFakeSource() *fakeSource {
	return &fakeSource{boards: map[string][]model.ScoreEntry{}, fail: map[string]error{}}
}

func (f *fakeSource) add(category, name string, score float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	b := append(f.boards[category], model.ScoreEntry{Name: name, Score: score, Category: category, Seq: f.seq})
	sort.SliceStable(b, func(i, j int) bool { return b[i].RanksBefore(b[j]) })
	f.boards[category] = b
}

func (f *fakeSource) TopN(ctx context.Context, category string, n int) ([]model.ScoreEntry, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, n)
	if err := f.fail[category]; err != nil {
		return nil, err
	}
	b := f.boards[category]
	if len(b) > n {
		b = b[:n]
	}
	return append([]model.ScoreEntry{}, b...), nil
}

func names(entries []model.ScoreEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestCategoryRanker(t *testing.T) {
	Convey("Given a category ranker", t, func() {
		ctx := context.Background()
		src := newFakeSource()
		for i := range 15 {
			src.add("easy", fmt.Sprintf("p%02d", i), float64(i))
		}

		Convey("When n is not positive", func() {
			r := ranking.NewCategoryRanker(src)
			board, err := r.TopN(ctx, "easy", 0)

			Convey("Then the default of ten should apply", func() {
				So(err, ShouldBeNil)
				So(board, ShouldHaveLength, 10)
				So(src.limits, ShouldResemble, []int{10})
				So(board[0].Name, ShouldEqual, "p14")
			})
		})

		Convey("When a custom default is configured", func() {
			r := ranking.NewCategoryRanker(src, ranking.WithDefaultN(3))
			board, err := r.TopN(ctx, "easy", -1)

			Convey("Then it should be used", func() {
				So(err, ShouldBeNil)
				So(names(board), ShouldResemble, []string{"p14", "p13", "p12"})
				So(r.DefaultN(), ShouldEqual, 3)
			})
		})

		Convey("When the category is unknown", func() {
			board, err := ranking.NewCategoryRanker(src).TopN(ctx, "nightmare", 10)

			Convey("Then the board should be empty", func() {
				So(err, ShouldBeNil)
				So(board, ShouldBeEmpty)
			})
		})
	})
}

func TestUnifiedRanker(t *testing.T) {
	Convey("Given a unified ranker", t, func() {
		ctx := context.Background()
		src := newFakeSource()
		unified := ranking.NewUnifiedRanker(ranking.NewCategoryRanker(src), ranking.WithFanoutLimit(2))
		all := []string{"easy", "medium", "hard"}

		Convey("When Ana, Bo and Cy each play a different difficulty", func() {
			src.add("easy", "Ana", 50)
			src.add("hard", "Bo", 90)
			src.add("medium", "Cy", 70)

			board, err := unified.TopNOverall(ctx, 10, all)

			Convey("Then the merged board should be ordered by score", func() {
				So(err, ShouldBeNil)
				So(names(board), ShouldResemble, []string{"Bo", "Cy", "Ana"})
				So(board[0].Category, ShouldEqual, "hard")
			})
		})

		Convey("When every category holds more than n entries", func() {
			for ci, c := range all {
				for i := range 12 {
					src.add(c, fmt.Sprintf("%s-%02d", c, i), float64(i*3+ci))
				}
			}

			board, err := unified.TopNOverall(ctx, 10, all)
			So(err, ShouldBeNil)

			Convey("Then the result should obey the merge law", func() {
				So(len(board), ShouldEqual, 10)
				for i := 1; i < len(board); i++ {
					So(board[i-1].Score, ShouldBeGreaterThanOrEqualTo, board[i].Score)
				}

				var concat []model.ScoreEntry
				for _, c := range all {
					top, _ := src.TopN(ctx, c, 10)
					concat = append(concat, top...)
				}
				for _, e := range board {
					found := false
					for _, c := range concat {
						if c.Name == e.Name {
							found = true
							break
						}
					}
					So(found, ShouldBeTrue)
				}
			})

			Convey("Then no category should be asked for more than n", func() {
				for _, n := range src.limits {
					So(n, ShouldBeLessThanOrEqualTo, 10)
				}
			})
		})

		Convey("When scores tie across categories", func() {
			src.add("easy", "easy-first", 80)
			src.add("hard", "hard-first", 80)
			src.add("hard", "hard-second", 80)
			src.add("medium", "medium-first", 80)

			first, err := unified.TopNOverall(ctx, 10, all)
			So(err, ShouldBeNil)

			Convey("Then rank in category, then category order, decides", func() {
				So(names(first), ShouldResemble, []string{"easy-first", "medium-first", "hard-first", "hard-second"})
			})

			Convey("Then repeated queries should agree", func() {
				for range 20 {
					again, err := unified.TopNOverall(ctx, 10, all)
					So(err, ShouldBeNil)
					So(names(again), ShouldResemble, names(first))
				}
			})
		})

		Convey("When one category fails", func() {
			src.add("easy", "Ana", 50)
			boom := errors.New("connection reset")
			src.fail["medium"] = boom

			board, err := unified.TopNOverall(ctx, 10, all)

			Convey("Then the whole call should fail without a partial board", func() {
				So(board, ShouldBeNil)
				So(errors.Is(err, boom), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "medium")
			})
		})

		Convey("When no categories are given", func() {
			board, err := unified.TopNOverall(ctx, 10, nil)

			Convey("Then the board should be empty and storage untouched", func() {
				So(err, ShouldBeNil)
				So(board, ShouldNotBeNil)
				So(board, ShouldBeEmpty)
				So(src.calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When a category is listed twice", func() {
			src.add("easy", "Ana", 50)
			board, err := unified.TopNOverall(ctx, 10, []string{"easy", "hard", "easy"})

			Convey("Then it should be fetched and counted once", func() {
				So(err, ShouldBeNil)
				So(names(board), ShouldResemble, []string{"Ana"})
				So(src.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When every category is empty", func() {
			board, err := unified.TopNOverall(ctx, 0, all)

			Convey("Then the board should be empty", func() {
				So(err, ShouldBeNil)
				So(board, ShouldBeEmpty)
			})
		})
	})
}

func TestMerge(t *testing.T) {
	Convey("Given boards already in board order", t, func() {
		boards := [][]model.ScoreEntry{
			{{Name: "a1", Score: 9}, {Name: "a2", Score: 5}},
			{},
			{{Name: "c1", Score: 9}, {Name: "c2", Score: 7}, {Name: "c3", Score: 1}},
		}

		Convey("When merging with a bound", func() {
			out := ranking.Merge(boards, 3)

			Convey("Then the bound and order should hold", func() {
				So(names(out), ShouldResemble, []string{"a1", "c1", "c2"})
			})
		})

		Convey("When the bound exceeds the input", func() {
			out := ranking.Merge(boards, 100)

			Convey("Then everything should be returned", func() {
				So(names(out), ShouldResemble, []string{"a1", "c1", "c2", "a2", "c3"})
			})
		})
	})
}
