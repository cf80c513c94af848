package repository

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/okian/podium/internal/domain/model"
)

// Treap-based, in-memory Store implementation.
//
// Each category owns one treap. The BST comparator is ScoreEntry.RanksBefore
// (score DESC, then Seq ASC), so an in-order traversal yields the board from
// best to worst. Priorities are random, which keeps the expected depth
// logarithmic regardless of insertion order.

type node struct {
	entry model.ScoreEntry
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, e model.ScoreEntry, prio uint64) *node {
	if n == nil {
		return &node{entry: e, prio: prio, size: 1}
	}
	if e.RanksBefore(n.entry) {
		n.left = insert(n.left, e, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, e, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in board order.
func collectTopN(n *node, limit int, out *[]model.ScoreEntry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.entry)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// TreapStore keeps every category board in memory.
type TreapStore struct {
	mu       sync.RWMutex
	boards   map[string]*node
	seq      int64
	total    int
	priority func() uint64
	closed   bool
}

var _ Store = (*TreapStore)(nil)
var _ Counter = (*TreapStore)(nil)

// NewTreapStore constructs an empty treap store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		boards:   make(map[string]*node),
		priority: rand.Uint64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert implements Store.Insert in O(log n) expected time.
func (s *TreapStore) Insert(ctx context.Context, category string, e model.ScoreEntry) (model.ScoreEntry, error) {
	if err := ctx.Err(); err != nil {
		return model.ScoreEntry{}, WrapStorage("treap.insert", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.ScoreEntry{}, WrapStorage("treap.insert", errStoreClosed)
	}

	s.seq++
	e.Seq = s.seq
	e.Category = category
	s.boards[category] = insert(s.boards[category], e, s.priority())
	s.total++
	return e, nil
}

// TopN implements Store.TopN in O(log n + k) expected time.
func (s *TreapStore) TopN(ctx context.Context, category string, n int) ([]model.ScoreEntry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapStorage("treap.top_n", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, WrapStorage("treap.top_n", errStoreClosed)
	}

	root := s.boards[category]
	out := make([]model.ScoreEntry, 0, min(n, nsize(root)))
	collectTopN(root, n, &out)
	return out, nil
}

// Categories implements Store.Categories.
func (s *TreapStore) Categories(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapStorage("treap.categories", err)
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, WrapStorage("treap.categories", errStoreClosed)
	}
	names := make([]string, 0, len(s.boards))
	for name := range s.boards {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	return names, nil
}

// Count returns the number of entries across all categories.
func (s *TreapStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, WrapStorage("treap.count", errStoreClosed)
	}
	return s.total, nil
}

// Close drops every board. Later calls fail with ErrStorage.
func (s *TreapStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.boards = make(map[string]*node)
	s.total = 0
	return nil
}
