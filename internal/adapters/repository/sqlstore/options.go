package sqlstore

// Option configures Open.
type Option func(*options)

type options struct {
	autoMigrate bool
}

// WithAutoMigrate controls whether Open applies pending migrations.
// Enabled by default; disable it when migrations run from cmd/migrate.
func WithAutoMigrate(enabled bool) Option {
	return func(o *options) {
		o.autoMigrate = enabled
	}
}
