package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/pressqueue/config"
	"github.com/target/pressqueue/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = 2 * time.Minute
	// A manual cycle can take a few minutes per due campaign.
	defaultCycleTimeout = 30 * time.Minute
)

func main() {
	cfg, cfgErr := bootstrap.LoadConfig()
	logger := bootstrap.InitLogger(cfg.IsDev)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	if cfgErr != nil {
		logger.ErrorContext(context.Background(), "load config", "error", cfgErr)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrations,
		},
		"status": {
			name:        "status",
			description: "Summarize pending migrations, due campaigns and recent failures",
			run:         runStatus,
		},
		"run-cycle": {
			name:        "run-cycle",
			description: "Run one processing cycle now and print the outcome per campaign",
			run:         runCycle,
		},
		"list-due": {
			name:        "list-due",
			description: "List campaigns that are due for processing",
			run:         runListDue,
		},
		"list-jobs": {
			name:        "list-jobs",
			description: "List content jobs, optionally filtered by campaign or status",
			run:         runListJobs,
		},
		"add-campaign": {
			name:        "add-campaign",
			description: "Create a campaign (due immediately)",
			run:         runAddCampaign,
		},
		"set-interval": {
			name:        "set-interval",
			description: "Change a campaign's publishing interval",
			run:         runSetInterval,
		},
		"pause": {
			name:        "pause",
			description: "Deactivate a campaign",
			run:         runPause,
		},
		"resume": {
			name:        "resume",
			description: "Reactivate a campaign",
			run:         runResume,
		},
		"audit": {
			name:        "audit",
			description: "Show recent audit events for a campaign",
			run:         runAudit,
		},
		"add-site": {
			name:        "add-site",
			description: "Register a WordPress site (application password is encrypted at rest)",
			run:         runAddSite,
		},
		"content-types": {
			name:        "content-types",
			description: "List the content-type templates campaigns can select",
			run:         runContentTypes,
		},
		"suggest-titles": {
			name:        "suggest-titles",
			description: "Propose fresh titles for a campaign",
			run:         runSuggestTitles,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: pressqueue-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-16s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

// withDatabase runs f with a connected database and a context cancelled on SIGINT/SIGTERM or timeout.
func withDatabase(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *sql.DB) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

// withInfra is withDatabase plus the optional Redis client.
func withInfra(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *sql.DB, redis.UniversalClient) error,
) error {
	return withDatabase(cmdCtx, timeout, func(ctx context.Context, db *sql.DB) error {
		redisClient, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
			RedisConfig: cmdCtx.Config.Redis,
			Logger:      cmdCtx.Logger,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		if redisClient != nil {
			defer func() {
				if cerr := redisClient.Close(); cerr != nil {
					cmdCtx.Logger.Warn("redis close failed", "error", cerr)
				}
			}()
		}
		return f(ctx, db, redisClient)
	})
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("migrate")
	timeout := fs.Duration("timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	return withDatabase(cmdCtx, *timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("running database migrations")
		if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
			return err
		}
		cmdCtx.Logger.Info("migrations completed successfully")
		return nil
	})
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}
