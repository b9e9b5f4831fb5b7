// Package cmd provides the reportctl commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/koperasi/backend/internal/infrastructure/config"
	"github.com/koperasi/backend/internal/infrastructure/logger"
	"github.com/koperasi/backend/internal/infrastructure/persistence"
)

// rootOptions are the flags shared by every subcommand
type rootOptions struct {
	dbPath   string
	logLevel string
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "reportctl",
		Short: "Generate koperasi financial reports from the ledger",
		Long: `reportctl reads the koperasi general ledger and prints the same
financial reports the HTTP service serves.

Connection settings come from config.toml and KOPERASI_* environment
variables (a .env file is honoured). --db switches to a local sqlite file.

Example:
  reportctl seed --db demo.db --sample
  reportctl generate --db demo.db --type trial_balance --start 2024-01-01 --end 2024-01-31
  reportctl generate --type income_statement --format table`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "sqlite database file (overrides the configured database)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newGenerateCmd(opts))
	root.AddCommand(newSeedCmd(opts))

	return root
}

// session is an open ledger database plus the logger and config it was opened with
type session struct {
	cfg *config.Config
	db  *persistence.Database
	log *zap.Logger
}

func (s *session) Close() {
	if err := s.db.Close(); err != nil {
		s.log.Warn("Error closing database", zap.Error(err))
	}
	_ = logger.Sync(s.log)
}

// openSession loads configuration, applies the command line overrides and connects.
// Logs go to stderr so that stdout carries only the report.
func openSession(opts *rootOptions) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if opts.dbPath != "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Path = opts.dbPath
	}

	log, err := logger.New(&logger.Config{
		Level:  opts.logLevel,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	db, err := persistence.Open(&cfg.Database,
		persistence.WithLogger(logger.NewSQLLogger(log, opts.logLevel, logger.DefaultSlowSQL)))
	if err != nil {
		return nil, err
	}
	log.Debug("Database connected", zap.String("driver", cfg.Database.Driver))

	return &session{cfg: cfg, db: db, log: log}, nil
}
