package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/pressqueue/internal/adapters/processor"
	"github.com/target/pressqueue/internal/bootstrap"
	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/data"
	"github.com/target/pressqueue/internal/domain/contenttype"
	"github.com/target/pressqueue/internal/domain/model"
)

type statusReport struct {
	PendingMigrations []string
	DueCampaigns      int
	RecentFailures    []*model.ContentJob
}

func runStatus(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("status")
	failures := fs.Int("failures", 10, "Number of recent failed jobs to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		var report statusReport
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			pending, err := data.PendingMigrations(gctx, db)
			if err != nil {
				return fmt.Errorf("pending migrations: %w", err)
			}
			report.PendingMigrations = pending
			return nil
		})
		g.Go(func() error {
			due, err := data.NewCampaignRepo(db).FindDueCampaigns(gctx, time.Now().UTC(), 1000)
			if err != nil {
				return fmt.Errorf("find due campaigns: %w", err)
			}
			report.DueCampaigns = len(due)
			return nil
		})
		g.Go(func() error {
			failed := model.ContentJobStatusFailed
			jobs, err := data.NewContentJobRepo(db, data.RepoConfig{}).List(gctx, model.ContentJobListOptions{
				Status: &failed,
				Limit:  *failures,
			})
			if err != nil {
				return fmt.Errorf("list failed jobs: %w", err)
			}
			report.RecentFailures = jobs
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}
		return printStatus(cmdCtx.Out, report)
	})
}

func printStatus(w io.Writer, r statusReport) error {
	migrations := "up to date"
	if n := len(r.PendingMigrations); n > 0 {
		migrations = strconv.Itoa(n) + " pending"
	}
	if err := writef(w, "Migrations:     %s\nDue campaigns:  %d\n", migrations, r.DueCampaigns); err != nil {
		return err
	}
	if len(r.RecentFailures) == 0 {
		return writeln(w, "Recent failures: none")
	}
	if err := writeln(w, "Recent failures:"); err != nil {
		return err
	}
	return printJobs(w, r.RecentFailures)
}

func runCycle(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("run-cycle")
	timeout := fs.Duration("timeout", defaultCycleTimeout, "Maximum duration of the cycle")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withInfra(cmdCtx, *timeout, func(ctx context.Context, db *sql.DB, redisClient redis.UniversalClient) error {
		cfg := &cmdCtx.Config
		services := bootstrap.NewServices(&bootstrap.ServiceDeps{
			Config:      cfg,
			DB:          db,
			RedisClient: redisClient,
			Logger:      cmdCtx.Logger,
		})
		defer func() {
			if cerr := services.Close(); cerr != nil {
				cmdCtx.Logger.Warn("close services failed", "error", cerr)
			}
		}()

		runner, err := processor.NewRunner(processor.RunnerOptions{
			DB:          db,
			RedisClient: redisClient,
			Encryptor:   bootstrap.CreateEncryptor(cfg.SitesEncryptionKey, cmdCtx.Logger),
			Config:      cfg.Processor,
			Generator:   cfg.Generator,
			Publisher:   cfg.Publisher,
			Logger:      cmdCtx.Logger,
			Metrics:     services.Observability.Sink(),
			Notifier:    services.Observability.FailureNotifier,
			ExtraAudit:  services.AuditSinks,
		})
		if err != nil {
			return err
		}

		res, err := runner.Processor().RunCycle(ctx)
		if err != nil {
			return err
		}
		return printCycle(cmdCtx.Out, res)
	})
}

func printCycle(w io.Writer, res core.CycleResult) error {
	if res.Skipped {
		return writef(w, "Cycle skipped (%s)\n", res.SkipReason)
	}
	if err := writef(w, "Cycle finished in %s: %d due, %d completed, %d failed\n",
		res.Duration.Round(time.Millisecond), res.Due, res.Completed, res.Failed); err != nil {
		return err
	}
	if len(res.Attempts) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "CAMPAIGN\tJOB\tOUTCOME\tNEXT DUE\tERROR\n"); err != nil {
		return err
	}
	for _, a := range res.Attempts {
		next := "-"
		if a.NextDueAt != nil {
			next = a.NextDueAt.UTC().Format(time.RFC3339)
		}
		errText := "-"
		if a.Error != "" {
			errText = truncate(a.Error, 60)
		}
		jobID := a.JobID
		if jobID == "" {
			jobID = "-"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n", a.CampaignID, jobID, a.Outcome, next, errText); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runAddSite(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("add-site")
	var req model.CreateSiteRequest
	fs.StringVar(&req.Name, "name", "", "Display name (required)")
	fs.StringVar(&req.BaseURL, "url", "", "Site base URL, e.g. https://blog.example.com (required)")
	fs.StringVar(&req.Username, "user", "", "WordPress username (required)")
	fs.StringVar(&req.AppPassword, "password", "", "Application password (defaults to $WORDPRESS_APP_PASSWORD)")
	status := fs.String("status", "", "Default post status (publish or draft)")
	categories := fs.String("categories", "", "Comma-separated category IDs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if req.AppPassword == "" {
		req.AppPassword = os.Getenv("WORDPRESS_APP_PASSWORD")
	}
	req.DefaultStatus = model.PostStatus(*status)
	for _, raw := range splitList(*categories) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid category id %q", raw)
		}
		req.CategoryIDs = append(req.CategoryIDs, id)
	}

	if cmdCtx.Config.SitesEncryptionKey == "" && !cmdCtx.Config.IsDev {
		return errors.New("SITES_ENCRYPTION_KEY must be set to store site credentials")
	}
	enc := bootstrap.CreateEncryptor(cmdCtx.Config.SitesEncryptionKey, cmdCtx.Logger)

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		site, err := data.NewSiteRepo(db, enc).Create(ctx, &req)
		if err != nil {
			return err
		}
		return writef(cmdCtx.Out, "Registered site %s (%s)\n", site.ID, site.BaseURL)
	})
}

func runContentTypes(cmdCtx *commandContext, _ []string) error {
	return printContentTypes(cmdCtx.Out, contenttype.Default())
}

func printContentTypes(w io.Writer, reg *contenttype.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "KEY\tNAME\tDESCRIPTION\n"); err != nil {
		return err
	}
	for _, t := range reg.All() {
		if err := writef(tw, "%s\t%s\t%s\n", t.Key, t.Name, truncate(t.Description, 70)); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(w, "%d content types\n", reg.Len())
}

func runSuggestTitles(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("suggest-titles")
	id := fs.String("campaign", "", "Campaign ID (required)")
	count := fs.Int("n", 5, "Number of titles to propose (max 20)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-campaign is required")
	}

	return withInfra(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB, redisClient redis.UniversalClient) error {
		services := bootstrap.NewServices(&bootstrap.ServiceDeps{
			Config:      &cmdCtx.Config,
			DB:          db,
			RedisClient: redisClient,
			Logger:      cmdCtx.Logger,
		})
		defer func() {
			if cerr := services.Close(); cerr != nil {
				cmdCtx.Logger.Warn("close services failed", "error", cerr)
			}
		}()
		if services.Titles == nil {
			return errors.New("title suggestions need GENERATOR_API_KEY")
		}

		titles, err := services.Titles.Suggest(ctx, *id, *count)
		if err != nil {
			return err
		}
		if len(titles) == 0 {
			return writeln(cmdCtx.Out, "No fresh titles found.")
		}
		for i, title := range titles {
			if err := writef(cmdCtx.Out, "%2d. %s\n", i+1, title); err != nil {
				return err
			}
		}
		return nil
	})
}
