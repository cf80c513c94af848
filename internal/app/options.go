package service

import (
	"time"

	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTopN sets the leaderboard size.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithCategories sets the fixed categories of the unified board.
func WithCategories(categories []string) Option {
	return func(s *Service) {
		if categories != nil {
			s.categories = append([]string(nil), categories...)
		}
	}
}

// WithCategoryDiscovery adds every category known to the store to the
// unified board, after the fixed ones.
func WithCategoryDiscovery(enabled bool) Option {
	return func(s *Service) {
		s.discover = enabled
	}
}

// WithUnified turns the merged board on or off.
func WithUnified(enabled bool) Option {
	return func(s *Service) {
		s.unified = enabled
	}
}

// WithFanoutLimit caps concurrent category fetches for the unified board.
func WithFanoutLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.fanoutLimit = limit
		}
	}
}

// WithStatsInterval sets how often store gauges are refreshed.
func WithStatsInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.statsInterval = interval
		}
	}
}

// WithClock replaces the clock used to stamp submissions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
