package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rentflow/rental-api/internal/config"
	"github.com/rentflow/rental-api/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// command is a resolved invocation of the migration tool
type command struct {
	Name    string
	Dir     string
	Version int64
	Label   string
}

// migrator executes a resolved command against the database
type migrator func(ctx context.Context, c *command) error

func main() {
	basicCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	rootCmd := newRootCmd(basicCfg.Database.MigrationsDir, func(ctx context.Context, c *command) error {
		return migrateDatabase(ctx, log, c)
	})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(defaultDir string, migrate migrator) *cobra.Command {
	var dir string
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Rental API database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dir, "dir", defaultDir, "migrations directory")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall timeout")

	run := func(cmd *cobra.Command, c *command) error {
		if dir == "" {
			return fmt.Errorf("migrations directory must not be empty")
		}
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive")
		}
		c.Dir = dir

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return migrate(ctx, c)
	}

	simple := func(name, short string) *cobra.Command {
		return &cobra.Command{
			Use:   name,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, &command{Name: name})
			},
		}
	}
	targeted := func(name, short string) *cobra.Command {
		return &cobra.Command{
			Use:   name + " VERSION",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || version < 0 {
					return fmt.Errorf("invalid target version %q", args[0])
				}
				return run(cmd, &command{Name: name, Version: version})
			},
		}
	}

	rootCmd.AddCommand(
		simple("up", "Apply all pending migrations"),
		targeted("up-to", "Apply migrations up to a version"),
		simple("down", "Roll back the latest migration"),
		targeted("down-to", "Roll back migrations down to a version"),
		simple("redo", "Roll back and reapply the latest migration"),
		simple("reset", "Roll back all migrations"),
		simple("status", "Show migration status"),
		simple("version", "Show the current schema version"),
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a new SQL migration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, &command{Name: "create", Label: args[0]})
			},
		},
	)
	return rootCmd
}

func migrateDatabase(ctx context.Context, log *zap.Logger, c *command) error {
	// Database credentials may live in Key Vault, same as for the API
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetLogger(zap.NewStdLog(log))
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	log.Info("Running migration command",
		zap.String("command", c.Name),
		zap.String("dir", c.Dir),
		zap.String("database", cfg.Database.Name),
	)
	if err := execute(ctx, db, c); err != nil {
		return err
	}
	log.Info("Migration command finished", zap.String("command", c.Name))
	return nil
}

func execute(ctx context.Context, db *sql.DB, c *command) error {
	switch c.Name {
	case "up":
		if err := goose.UpContext(ctx, db, c.Dir); err != nil {
			return fmt.Errorf("failed to run up migrations: %w", err)
		}
	case "up-to":
		if err := goose.UpToContext(ctx, db, c.Dir, c.Version); err != nil {
			return fmt.Errorf("failed to migrate up to %d: %w", c.Version, err)
		}
	case "down":
		if err := goose.DownContext(ctx, db, c.Dir); err != nil {
			return fmt.Errorf("failed to run down migration: %w", err)
		}
	case "down-to":
		if err := goose.DownToContext(ctx, db, c.Dir, c.Version); err != nil {
			return fmt.Errorf("failed to migrate down to %d: %w", c.Version, err)
		}
	case "redo":
		if err := goose.RedoContext(ctx, db, c.Dir); err != nil {
			return fmt.Errorf("failed to redo migration: %w", err)
		}
	case "reset":
		if err := goose.ResetContext(ctx, db, c.Dir); err != nil {
			return fmt.Errorf("failed to reset migrations: %w", err)
		}
	case "status":
		if err := goose.StatusContext(ctx, db, c.Dir); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
	case "version":
		if err := goose.VersionContext(ctx, db, c.Dir); err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
	case "create":
		if err := goose.Create(db, c.Dir, c.Label, "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
	default:
		return fmt.Errorf("unknown command: %s", c.Name)
	}
	return nil
}
