package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/koperasi/backend/internal/infrastructure/config"
)

// Database is an open ledger store connection
type Database struct {
	DB     *gorm.DB
	Driver string
	sql    *sql.DB
}

// OpenOption configures Open
type OpenOption func(*gorm.Config)

// WithLogger routes gorm's statement log to l. Without it gorm is silent.
func WithLogger(l gormlogger.Interface) OpenOption {
	return func(c *gorm.Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// Open connects to the configured store and verifies the connection.
// SQLite runs on a single connection: writers are serialised and each
// ":memory:" connection would otherwise be a separate database.
func Open(cfg *config.DatabaseConfig, opts ...OpenOption) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres, "":
		dialector = postgres.Open(cfg.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gcfg := &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.Driver != config.DriverSQLite,
	}
	for _, opt := range opts {
		opt(gcfg)
	}

	gdb, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}
	db, err := wrap(gdb, cfg.Driver)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == config.DriverSQLite {
		db.sql.SetMaxOpenConns(1)
	} else {
		db.sql.SetMaxOpenConns(cfg.MaxOpenConns)
		db.sql.SetMaxIdleConns(cfg.MaxIdleConns)
		db.sql.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.sql.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := db.sql.Ping(); err != nil {
		_ = db.sql.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

func wrap(gdb *gorm.DB, driver string) (*Database, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("underlying sql.DB: %w", err)
	}
	if driver == "" {
		driver = config.DriverPostgres
	}
	return &Database{DB: gdb, Driver: driver, sql: sqlDB}, nil
}

// System is the OpenTelemetry db.system name of the driver
func (d *Database) System() string {
	if d.Driver == config.DriverSQLite {
		return "sqlite"
	}
	return "postgresql"
}

func (d *Database) Close() error {
	return d.sql.Close()
}

// Ping checks the connection is alive
func (d *Database) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Stats reports the connection pool
func (d *Database) Stats() (ConnectionStats, error) {
	s := d.sql.Stats()
	return ConnectionStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration,
	}, nil
}

// ConnectionStats is the pool snapshot served by the health endpoint
type ConnectionStats struct {
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
}
