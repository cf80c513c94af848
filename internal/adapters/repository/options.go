package repository

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithPriorityFunc replaces the random source of treap node priorities.
// Board order never depends on it; only the tree shape does.
func WithPriorityFunc(fn func() uint64) Option {
	return func(s *TreapStore) {
		if fn != nil {
			s.priority = fn
		}
	}
}
