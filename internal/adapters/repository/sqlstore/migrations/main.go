// Package migrations holds the schema history of the SQL score store.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered set applied by sqlstore.Open and cmd/migrate.
var Migrations = migrate.NewMigrations()

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
