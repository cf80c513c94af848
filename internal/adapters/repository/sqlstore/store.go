// Package sqlstore implements repository.Store on a relational database
// through bun. Postgres and SQLite are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/adapters/repository/sqlstore/migrations"
	"github.com/okian/podium/internal/domain/model"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnknownDriver is returned by Open for drivers other than the supported ones.
var ErrUnknownDriver = errors.New("unknown sql driver")

// scoreRow is the scores table row.
type scoreRow struct {
	bun.BaseModel `bun:"table:scores,alias:s"`

	Seq       int64     `bun:"seq,pk,autoincrement"`
	ID        string    `bun:"id,notnull"`
	Name      string    `bun:"name,notnull"`
	Score     float64   `bun:"score,notnull"`
	Category  string    `bun:"category,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (r scoreRow) entry() model.ScoreEntry {
	return model.ScoreEntry{
		Name:      r.Name,
		Score:     r.Score,
		Category:  r.Category,
		CreatedAt: r.CreatedAt.UTC(),
		ID:        r.ID,
		Seq:       r.Seq,
	}
}

// Store is a bun-backed score store.
type Store struct {
	db     *bun.DB
	driver string
}

var _ repository.Store = (*Store)(nil)
var _ repository.Counter = (*Store)(nil)

// Open connects to the database, verifies the connection and, unless
// disabled, applies pending migrations.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	o := options{autoMigrate: true}
	for _, opt := range opts {
		opt(&o)
	}

	var db *bun.DB
	switch driver {
	case DriverPostgres:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, repository.WrapStorage("sql.open", err)
		}
		// SQLite serializes writers; one connection avoids "database is locked".
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, repository.WrapStorage("sql.ping", err)
	}

	if o.autoMigrate {
		if err := Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &Store{db: db, driver: driver}, nil
}

// Migrate creates the bookkeeping tables if needed and applies every pending
// migration.
func Migrate(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return repository.WrapStorage("sql.migrate_init", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return repository.WrapStorage("sql.migrate", err)
	}
	return nil
}

// DB exposes the underlying handle for tooling.
func (s *Store) DB() *bun.DB { return s.db }

// Insert implements repository.Store.
func (s *Store) Insert(ctx context.Context, category string, e model.ScoreEntry) (model.ScoreEntry, error) {
	row := &scoreRow{
		ID:        e.ID,
		Name:      e.Name,
		Score:     e.Score,
		Category:  category,
		CreatedAt: e.CreatedAt,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(row).Returning("seq").Exec(ctx); err != nil {
		return model.ScoreEntry{}, repository.WrapStorage("sql.insert", err)
	}
	return row.entry(), nil
}

// TopN implements repository.Store. The (category, score desc, seq asc)
// index serves the query without a sort.
func (s *Store) TopN(ctx context.Context, category string, n int) ([]model.ScoreEntry, error) {
	if n < 1 {
		return nil, repository.ErrInvalidLimit
	}

	var rows []scoreRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("category = ?", category).
		OrderExpr("score DESC, seq ASC").
		Limit(n).
		Scan(ctx)
	if err != nil {
		return nil, repository.WrapStorage("sql.top_n", err)
	}

	out := make([]model.ScoreEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out, nil
}

// Categories implements repository.Store.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	err := s.db.NewSelect().
		Model((*scoreRow)(nil)).
		Column("category").
		Distinct().
		Order("category ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, repository.WrapStorage("sql.categories", err)
	}
	return names, nil
}

// Count implements repository.Counter.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*scoreRow)(nil)).Count(ctx)
	if err != nil {
		return 0, repository.WrapStorage("sql.count", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
