// Command migrate manages the postgres ledger schema with the migrations embedded in the binary.
package main

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/koperasi/backend/internal/infrastructure/config"
	"github.com/koperasi/backend/internal/infrastructure/logger"
	"github.com/koperasi/backend/internal/infrastructure/migration"
	"github.com/koperasi/backend/migrations"
)

type cli struct {
	path     string
	logLevel string
	log      *zap.Logger
}

func main() {
	c := &cli{}
	if err := c.command().Execute(); err != nil {
		os.Exit(1)
	}
}

func (c *cli) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "migrate",
		Short: "Koperasi ledger schema migrations",
		Long: `Applies the ledger schema to postgres. Connection settings come from config.toml
and KOPERASI_DATABASE_* environment variables. SQLite databases are created with
database.auto_migrate instead.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			log, err := logger.New(&logger.Config{
				Level:      c.logLevel,
				Format:     "console",
				Output:     "stdout",
				TimeFormat: time.DateTime,
			})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			c.log = log
			if c.path != "" {
				if c.path, err = filepath.Abs(c.path); err != nil {
					return err
				}
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync(c.log)
		},
	}
	root.PersistentFlags().StringVar(&c.path, "path", "", "migrations directory (default: built into the binary)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		c.withMigrator("up", "Apply all pending migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Up() }),
		c.withMigrator("down", "Roll back all migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Down() }),
		c.withMigrator("step <n>", "Apply n migrations, negative n rolls back", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		c.withMigrator("version", "Show the applied schema version", cobra.NoArgs, c.version),
		c.withMigrator("force <version>", "Set the schema version without running migrations", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				c.log.Warn("Forcing schema version; the database is not checked", zap.Int("version", v))
				return m.Force(v)
			}),
		&cobra.Command{
			Use:   "list",
			Short: "List available migrations",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return c.list() },
		},
		&cobra.Command{
			Use:     "create <name> [description]",
			Short:   "Write the next numbered migration pair into --path (default ./migrations)",
			Example: `  migrate --path migrations create add_member_number "member number on accounts"`,
			Args:    cobra.MinimumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return c.create(args[0], strings.Join(args[1:], " "))
			},
		},
	)
	return root
}

// withMigrator builds a subcommand that runs fn against a connected postgres migrator
func (c *cli) withMigrator(use, short string, args cobra.PositionalArgs, fn func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, a []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrations target postgres, configured driver is %s", cfg.Database.Driver)
			}

			db, err := sql.Open("postgres", cfg.Database.DSN())
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.PingContext(cmd.Context()); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}

			var opts []migration.Option
			if c.path != "" {
				opts = append(opts, migration.WithSourcePath(c.path))
			}
			m, err := migration.New(db, c.log, opts...)
			if err != nil {
				return err
			}
			defer m.Close()

			c.log.Info("Running migration command", zap.String("command", cmd.Name()), zap.String("source", m.Source()))
			return fn(m, a)
		},
	}
}

func (c *cli) version(m *migration.Migrator, _ []string) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if v == 0 {
		c.log.Info("No migrations applied")
		return nil
	}
	c.log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
	return nil
}

func (c *cli) list() error {
	var source fs.FS = migrations.FS
	if c.path != "" {
		source = os.DirFS(c.path)
	}
	names, err := migration.List(source)
	if err != nil {
		return err
	}
	c.log.Info("Available migrations", zap.Int("count", len(names)))
	for _, name := range names {
		fmt.Println("  -", name)
	}
	return nil
}

func (c *cli) create(name, description string) error {
	dir := c.path
	if dir == "" {
		dir = "migrations"
	}
	mf, err := migration.Create(dir, name, description, time.Now())
	if err != nil {
		return err
	}
	c.log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up", mf.UpPath),
		zap.String("down", mf.DownPath),
	)
	return nil
}
