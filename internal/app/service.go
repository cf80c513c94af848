// Package service provides the leaderboard service used by the HTTP API:
// validated submissions, per-category boards and the merged board.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/ranking"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// DefaultCategories is the fixed category set of the unified board.
var DefaultCategories = []string{"easy", "medium", "hard"}

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store          repository.Store
	categoryRanker *ranking.CategoryRanker
	unifiedRanker  *ranking.UnifiedRanker
	validate       *validator.Validate

	// Configuration
	topN          int
	categories    []string
	discover      bool
	unified       bool
	fanoutLimit   int
	statsInterval time.Duration
	now           func() time.Time

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service on top of store. The caller owns the store and
// closes it after Stop.
func New(store repository.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("service: store is required")
	}

	s := &Service{
		store:         store,
		topN:          model.DefaultTopN,
		categories:    append([]string(nil), DefaultCategories...),
		discover:      true,
		unified:       true,
		fanoutLimit:   8,
		statsInterval: 15 * time.Second,
		now:           time.Now,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	s.validate = v

	s.categoryRanker = ranking.NewCategoryRanker(store, ranking.WithDefaultN(s.topN))
	s.unifiedRanker = ranking.NewUnifiedRanker(s.categoryRanker, ranking.WithFanoutLimit(s.fanoutLimit))
	return s, nil
}

// Start launches the background refresh of store gauges.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting leaderboard service...")

	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.statsLoop(ctx, s.stopCh)

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("topN", s.topN),
		logger.Any("categories", s.categories),
		logger.Bool("discoverCategories", s.discover),
		logger.Bool("unified", s.unified),
		logger.Int("fanoutLimit", s.fanoutLimit),
	)
	return nil
}

// Stop halts background work. It does not close the store.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.logger.Info(context.Background(), "stopping leaderboard service...")
	close(s.stopCh)
	s.started = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info(context.Background(), "leaderboard service stopped")
}

func (s *Service) statsLoop(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.statsInterval)
	defer ticker.Stop()

	s.refreshGauges(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.refreshGauges(ctx)
		}
	}
}

// refreshGauges pushes store size figures to metrics.
func (s *Service) refreshGauges(ctx context.Context) {
	if cats, err := s.store.Categories(ctx); err == nil {
		metrics.UpdateKnownCategories(len(cats))
	} else {
		s.logger.Warn(ctx, "failed to list categories", logger.Error(err))
	}
	if n, err := repository.Count(ctx, s.store); err == nil {
		metrics.UpdateStoredEntries(n)
	}
}

// Submit validates and stores one score.
func (s *Service) Submit(ctx context.Context, name string, score float64, category string) (model.ScoreEntry, error) {
	return s.SubmitRequest(ctx, Submission{Name: name, Score: &score, Category: category})
}

// SubmitRequest validates sub and stores it. Validation failures match
// ErrValidation and never reach the store.
func (s *Service) SubmitRequest(ctx context.Context, sub Submission) (model.ScoreEntry, error) {
	sub = sub.normalize()
	if err := s.validate.StructCtx(ctx, sub); err != nil {
		reason, verr := validationError(err)
		metrics.RecordSubmissionRejected(reason)
		s.logger.Debug(ctx, "submission rejected", logger.String("reason", reason), logger.Error(verr))
		return model.ScoreEntry{}, verr
	}

	entry := model.ScoreEntry{
		Name:      sub.Name,
		Score:     *sub.Score,
		Category:  sub.Category,
		CreatedAt: s.now().UTC(),
		ID:        uuid.NewString(),
	}

	stored, err := s.store.Insert(ctx, entry.Category, entry)
	if err != nil {
		return model.ScoreEntry{}, err
	}

	metrics.RecordSubmissionAccepted(stored.Category)
	s.logger.Debug(ctx, "score stored",
		logger.String("id", stored.ID),
		logger.String("category", stored.Category),
		logger.Float64("score", stored.Score),
	)
	return stored, nil
}

// Category returns the board of one category. An unknown or blank category
// yields an empty board.
func (s *Service) Category(ctx context.Context, category string) ([]model.ScoreEntry, error) {
	category = normalizeText(category)
	if category == "" {
		return []model.ScoreEntry{}, nil
	}
	metrics.RecordRankingQuery("category")
	return s.categoryRanker.TopN(ctx, category, s.topN)
}

// Unified returns the merged board over the known categories.
func (s *Service) Unified(ctx context.Context) ([]model.ScoreEntry, error) {
	if !s.unified {
		return nil, ErrUnifiedDisabled
	}
	metrics.RecordRankingQuery("unified")

	categories, err := s.KnownCategories(ctx)
	if err != nil {
		return nil, err
	}
	return s.unifiedRanker.TopNOverall(ctx, s.topN, categories)
}

// KnownCategories lists the fixed categories followed by, when discovery is
// on, the remaining store categories in ascending order.
func (s *Service) KnownCategories(ctx context.Context) ([]string, error) {
	out := append([]string(nil), s.categories...)
	if !s.discover {
		return out, nil
	}

	discovered, err := s.store.Categories(ctx)
	if err != nil {
		return nil, err
	}
	fixed := make(map[string]struct{}, len(out))
	for _, c := range out {
		fixed[c] = struct{}{}
	}
	extra := make([]string, 0, len(discovered))
	for _, c := range discovered {
		if _, ok := fixed[c]; !ok {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...), nil
}

// Ready reports whether the store answers.
func (s *Service) Ready(ctx context.Context) error {
	_, err := s.store.Categories(ctx)
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := map[string]any{
		"started":            started,
		"topN":               s.topN,
		"categories":         s.categories,
		"discoverCategories": s.discover,
		"unifiedEnabled":     s.unified,
		"fanoutLimit":        s.fanoutLimit,
	}

	if cats, err := s.store.Categories(ctx); err == nil {
		stats["knownCategories"] = len(cats)
		metrics.UpdateKnownCategories(len(cats))
	}
	if n, err := repository.Count(ctx, s.store); err == nil {
		stats["storedEntries"] = n
		metrics.UpdateStoredEntries(n)
	}
	return stats
}
