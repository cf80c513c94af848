package ranking

import "github.com/okian/podium/internal/domain/model"

// Option configures a CategoryRanker.
type Option func(*CategoryRanker)

// WithDefaultN sets the board size used when a caller passes n <= 0.
func WithDefaultN(n int) Option {
	return func(r *CategoryRanker) {
		if n > 0 {
			r.defaultN = n
		}
	}
}

// UnifiedOption configures a UnifiedRanker.
type UnifiedOption func(*UnifiedRanker)

// WithFanoutLimit caps how many categories are fetched at the same time.
func WithFanoutLimit(limit int) UnifiedOption {
	return func(u *UnifiedRanker) {
		if limit > 0 {
			u.fanoutLimit = limit
		}
	}
}

const (
	defaultN           = model.DefaultTopN
	defaultFanoutLimit = 8
)
