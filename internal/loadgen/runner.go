package loadgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
)

// ErrVerification marks a run whose boards broke an ordering rule.
var ErrVerification = errors.New("leaderboard verification failed")

// Report is the outcome of a run.
type Report struct {
	Seed       int64
	Stats      Stats
	Boards     map[string][]model.ScoreEntry
	Unified    []model.ScoreEntry
	Violations []string
}

// Run executes a complete load run and writes the summary tables to out.
func Run(ctx context.Context, cfg Config, out io.Writer) (*Report, error) {
	if cfg.Submissions < 0 || cfg.Workers < 1 || cfg.TopN < 1 || len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("loadgen: invalid config: submissions=%d workers=%d top=%d categories=%d",
			cfg.Submissions, cfg.Workers, cfg.TopN, len(cfg.Categories))
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	stats := Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("submissions", cfg.Submissions),
		logger.Int("workers", cfg.Workers),
		logger.Any("categories", cfg.Categories))

	if err := c.ready(ctx); err != nil {
		return nil, fmt.Errorf("service readiness check failed: %w", err)
	}

	gen := NewGenerator(cfg.Seed)
	subs := gen.Generate(cfg.Submissions, cfg.Categories)
	stats.Generated = len(subs)

	submit(ctx, c, cfg, subs, &stats, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{Seed: gen.Seed(), Boards: make(map[string][]model.ScoreEntry, len(cfg.Categories))}
	boards := make([][]model.ScoreEntry, len(cfg.Categories))
	for i, cat := range cfg.Categories {
		b, err := c.board(ctx, cat)
		if err != nil {
			return nil, fmt.Errorf("leaderboard retrieval failed: %w", err)
		}
		boards[i] = b
		report.Boards[cat] = b
		stats.Boards++
	}

	unified, err := c.board(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("unified leaderboard retrieval failed: %w", err)
	}
	stats.Boards++
	report.Unified = unified

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	report.Stats = stats
	report.Violations = verify(cfg, subs, boards, unified)

	if out != nil {
		if err := render(out, report); err != nil {
			log.Warn(ctx, "failed to render report", logger.Error(err))
		}
	}

	if len(report.Violations) > 0 {
		for _, v := range report.Violations {
			log.Error(ctx, "verification", logger.String("violation", v))
		}
		return report, fmt.Errorf("%w: %d violation(s)", ErrVerification, len(report.Violations))
	}
	log.Info(ctx, "load run completed",
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration))
	return report, nil
}

// submit posts subs through a fixed pool of workers.
func submit(ctx context.Context, c *client, cfg Config, subs []Submission, stats *Stats, log logger.Logger) {
	var submitted, successful, rejected, failed atomic.Int64

	work := make(chan Submission, cfg.Workers*2)
	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range work {
				status, err := c.submit(ctx, s)
				submitted.Add(1)
				switch {
				case err != nil:
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "submission failed", logger.String("name", s.Name), logger.Error(err))
					}
				case status == http.StatusCreated:
					successful.Add(1)
				case status == http.StatusBadRequest:
					rejected.Add(1)
				default:
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "submission failed", logger.String("name", s.Name), logger.Int("status", status))
					}
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, s := range subs {
			select {
			case <-ctx.Done():
				return
			case work <- s:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Successful = int(successful.Load())
	stats.Rejected = int(rejected.Load())
	stats.Failed = int(failed.Load())
}
