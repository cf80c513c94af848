package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	"github.com/okian/podium/internal/adapters/repository/sqlstore"
	"github.com/okian/podium/internal/adapters/repository/sqlstore/migrations"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the migration CLI. The store is opened in Before with
// auto-migration off so each command controls the schema itself.
func newApp(out io.Writer) *cli.App {
	var store *sqlstore.Store

	migrator := func() *migrate.Migrator {
		return migrate.NewMigrator(store.DB(), migrations.Migrations)
	}

	return &cli.App{
		Name:      "podium-migrate",
		Usage:     "manage the leaderboard SQL schema",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "postgres or sqlite",
				Value:   sqlstore.DriverPostgres,
				EnvVars: []string{"PODIUM_BACKEND"},
			},
			&cli.StringFlag{
				Name:     "dsn",
				Usage:    "Postgres DSN or SQLite file path",
				EnvVars:  []string{"PODIUM_DSN"},
				Required: true,
			},
		},
		Before: func(c *cli.Context) error {
			s, err := sqlstore.Open(c.Context, c.String("backend"), c.String("dsn"), sqlstore.WithAutoMigrate(false))
			if err != nil {
				return err
			}
			store = s
			return nil
		},
		After: func(*cli.Context) error {
			if store == nil {
				return nil
			}
			return store.Close()
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return migrator().Init(c.Context)
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate database",
				Action: func(c *cli.Context) error {
					m := migrator()
					if err := m.Init(c.Context); err != nil {
						return err
					}
					group, err := m.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Fprintln(out, "no new migrations to run")
					} else {
						fmt.Fprintf(out, "migrated to %s\n", group)
					}
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: func(c *cli.Context) error {
					group, err := migrator().Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Fprintln(out, "no groups to roll back")
					} else {
						fmt.Fprintf(out, "rolled back %s\n", group)
					}
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					ms, err := migrator().MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "migrations: %s\n", ms)
					fmt.Fprintf(out, "applied: %s\n", ms.Applied())
					fmt.Fprintf(out, "unapplied: %s\n", ms.Unapplied())
					return nil
				},
			},
		},
	}
}
