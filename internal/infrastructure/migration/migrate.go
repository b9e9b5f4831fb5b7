// Package migration applies the ledger schema migrations with golang-migrate.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/koperasi/backend/migrations"
	"go.uber.org/zap"
)

// Migrator handles database migrations using golang-migrate
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
	source  string
}

// Option configures where migrations are read from
type Option func(*options)

type options struct {
	sourcePath string
	sourceFS   fs.FS
}

// WithSourcePath reads migrations from a directory instead of the embedded set
func WithSourcePath(path string) Option {
	return func(o *options) {
		o.sourcePath = path
	}
}

// WithSourceFS reads migrations from the given filesystem root
func WithSourceFS(fsys fs.FS) Option {
	return func(o *options) {
		o.sourceFS = fsys
	}
}

// New creates a Migrator over an open postgres connection. Without options the
// migrations embedded in the binary are used.
func New(db *sql.DB, log *zap.Logger, opts ...Option) (*Migrator, error) {
	o := &options{sourceFS: migrations.FS}
	for _, opt := range opts {
		opt(o)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, source, err := o.open(driver)
	if err != nil {
		return nil, err
	}
	return &Migrator{
		migrate: m,
		logger:  log.With(zap.String("migrations_source", source)),
		source:  source,
	}, nil
}

func (o *options) open(driver database.Driver) (*migrate.Migrate, string, error) {
	if o.sourcePath != "" {
		url := "file://" + o.sourcePath
		m, err := migrate.NewWithDatabaseInstance(url, "postgres", driver)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", url, err)
		}
		return m, url, nil
	}

	src, err := iofs.New(o.sourceFS, ".")
	if err != nil {
		return nil, "", fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, "", fmt.Errorf("open embedded migrations: %w", err)
	}
	return m, "embedded", nil
}

// Source returns "embedded" or the file:// URL migrations are read from
func (m *Migrator) Source() string {
	return m.source
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	return m.apply("up", m.migrate.Up)
}

// Down rolls every migration back
func (m *Migrator) Down() error {
	return m.apply("down", m.migrate.Down)
}

// Steps applies n migrations, rolling back when n is negative
func (m *Migrator) Steps(n int) error {
	return m.apply(fmt.Sprintf("steps %+d", n), func() error { return m.migrate.Steps(n) })
}

// apply runs one golang-migrate operation; having nothing to do is not an error
func (m *Migrator) apply(op string, run func() error) error {
	m.logger.Info("Migrating", zap.String("op", op))

	err := run()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		m.logger.Info("Schema already at target", zap.String("op", op))
		return nil
	case err != nil:
		return fmt.Errorf("migrate %s: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migration finished",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Version returns the applied version; 0 means none
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied and clean without running anything.
// Used to recover a dirty schema after a failed migration was fixed by hand.
func (m *Migrator) Force(version int) error {
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}

// List returns the up migration files of fsys in version order
func List(fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	return names, nil
}
