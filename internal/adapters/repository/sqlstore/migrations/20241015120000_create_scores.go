package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// The scores table is frozen here as first deployed; later changes get their
// own migration file.
const (
	createScoresPG = `
		CREATE TABLE IF NOT EXISTS scores (
			seq BIGSERIAL PRIMARY KEY,
			id UUID NOT NULL UNIQUE,
			name TEXT NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			category TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`
	createScoresSQLite = `
		CREATE TABLE IF NOT EXISTS scores (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			score REAL NOT NULL,
			category TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`
	createRankIndex = `
		CREATE INDEX IF NOT EXISTS scores_category_rank_idx
		ON scores (category, score DESC, seq ASC);`
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		create := createScoresPG
		if db.Dialect().Name() == dialect.SQLite {
			create = createScoresSQLite
		}
		if _, err := db.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("create scores table: %w", err)
		}
		if _, err := db.ExecContext(ctx, createRankIndex); err != nil {
			return fmt.Errorf("create scores rank index: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		if _, err := db.ExecContext(ctx, `DROP INDEX IF EXISTS scores_category_rank_idx;`); err != nil {
			return fmt.Errorf("drop scores rank index: %w", err)
		}
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS scores;`); err != nil {
			return fmt.Errorf("drop scores table: %w", err)
		}
		return nil
	})
}
