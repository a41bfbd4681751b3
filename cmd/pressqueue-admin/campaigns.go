package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/target/pressqueue/internal/data"
	"github.com/target/pressqueue/internal/domain/model"
	"github.com/target/pressqueue/internal/service"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// keyValueFlag collects repeated key=value flags.
type keyValueFlag map[string]string

func (f keyValueFlag) String() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (f keyValueFlag) Set(v string) error {
	k, val, ok := strings.Cut(v, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	f[k] = strings.TrimSpace(val)
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func campaignService(db *sql.DB) *service.CampaignService {
	return service.NewCampaignService(service.CampaignServiceOptions{Repo: data.NewCampaignRepo(db)})
}

func runListDue(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("list-due")
	limit := fs.Int("limit", 50, "Maximum campaigns to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		due, err := data.NewCampaignRepo(db).FindDueCampaigns(ctx, time.Now().UTC(), *limit)
		if err != nil {
			return fmt.Errorf("find due campaigns: %w", err)
		}
		return printCampaigns(cmdCtx.Out, due)
	})
}

func printCampaigns(w io.Writer, campaigns []*model.Campaign) error {
	if len(campaigns) == 0 {
		return writeln(w, "No campaigns.")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "ID\tTOPIC\tINTERVAL\tNEXT DUE\tACTIVE\tSITE\n"); err != nil {
		return err
	}
	for _, c := range campaigns {
		interval := "invalid"
		if h, err := c.Interval(); err == nil {
			interval = h.String()
		}
		site := "-"
		if c.SiteID != nil {
			site = *c.SiteID
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
			c.ID, truncate(c.Topic, 40), interval, c.NextDueAt.UTC().Format(time.RFC3339), c.Active, site,
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runListJobs(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("list-jobs")
	campaignID := fs.String("campaign", "", "Only jobs for this campaign")
	status := fs.String("status", "", "Only jobs in this status (pending, in_progress, completed, failed)")
	limit := fs.Int("limit", 50, "Maximum jobs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := model.ContentJobListOptions{Limit: *limit}
	if *campaignID != "" {
		opts.CampaignID = campaignID
	}
	if *status != "" {
		s, ok := model.ParseContentJobStatus(*status)
		if !ok {
			return fmt.Errorf("unknown status %q", *status)
		}
		opts.Status = &s
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		jobs, err := data.NewContentJobRepo(db, data.RepoConfig{}).List(ctx, opts)
		if err != nil {
			return fmt.Errorf("list jobs: %w", err)
		}
		return printJobs(cmdCtx.Out, jobs)
	})
}

func printJobs(w io.Writer, jobs []*model.ContentJob) error {
	if len(jobs) == 0 {
		return writeln(w, "No jobs.")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "ID\tCAMPAIGN\tSTATUS\tTYPE\tCREATED\tRESULT\n"); err != nil {
		return err
	}
	for _, j := range jobs {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			j.ID, j.CampaignID, j.Status, deref(j.ContentType), j.CreatedAt.UTC().Format(time.RFC3339), jobResult(j),
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func jobResult(j *model.ContentJob) string {
	switch {
	case j.RemotePostURL != nil:
		return *j.RemotePostURL
	case j.LastError != nil:
		return truncate(*j.LastError, 60)
	default:
		return "-"
	}
}

func runAddCampaign(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("add-campaign")
	req := model.CreateCampaignRequest{Variables: map[string]string{}}
	fs.StringVar(&req.Topic, "topic", "", "Campaign topic (required)")
	fs.StringVar(&req.Audience, "audience", "", "Target audience")
	fs.StringVar(&req.Tone, "tone", "", "Writing tone")
	types := fs.String("types", "", "Comma-separated content-type keys")
	site := fs.String("site", "", "Publishing site ID")
	interval := fs.Float64("interval", 0, "Interval in hours (0.10 to 168.00)")
	schedule := fs.String("schedule", "", "Interval in hours as text (converted on write)")
	inactive := fs.Bool("inactive", false, "Create the campaign paused")
	fs.Var(keyValueFlag(req.Variables), "var", "Template variable key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req.ContentTypes = splitList(*types)
	if *site != "" {
		req.SiteID = site
	}
	if *interval != 0 {
		req.IntervalHours = interval
	}
	if *schedule != "" {
		req.Schedule = schedule
	}
	if *inactive {
		active := false
		req.Active = &active
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		c, err := campaignService(db).Create(ctx, &req)
		if err != nil {
			return err
		}
		return writef(cmdCtx.Out, "Created campaign %s, due %s\n", c.ID, c.NextDueAt.UTC().Format(time.RFC3339))
	})
}

func runSetInterval(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("set-interval")
	id := fs.String("campaign", "", "Campaign ID (required)")
	hours := fs.Float64("hours", 0, "New interval in hours (0.10 to 168.00)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-campaign is required")
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		c, err := campaignService(db).UpdateSchedule(ctx, *id, &model.UpdateScheduleRequest{IntervalHours: hours})
		if err != nil {
			return err
		}
		return writef(cmdCtx.Out, "Campaign %s now publishes every %s (next due %s)\n",
			c.ID, c.IntervalHours.String(), c.NextDueAt.UTC().Format(time.RFC3339))
	})
}

func runPause(cmdCtx *commandContext, args []string) error {
	return setActive(cmdCtx, "pause", args, false)
}

func runResume(cmdCtx *commandContext, args []string) error {
	return setActive(cmdCtx, "resume", args, true)
}

func setActive(cmdCtx *commandContext, name string, args []string, active bool) error {
	fs := newFlagSet(name)
	id := fs.String("campaign", "", "Campaign ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-campaign is required")
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		svc := campaignService(db)
		var (
			c   *model.Campaign
			err error
		)
		if active {
			c, err = svc.Activate(ctx, *id)
		} else {
			c, err = svc.Deactivate(ctx, *id)
		}
		if err != nil {
			return err
		}
		return writef(cmdCtx.Out, "Campaign %s active=%t\n", c.ID, c.Active)
	})
}

func runAudit(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("audit")
	id := fs.String("campaign", "", "Campaign ID (required)")
	limit := fs.Int("limit", 50, "Maximum events to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-campaign is required")
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		events, err := data.NewAuditEventRepo(db).ListByCampaign(ctx, *id, *limit)
		if err != nil {
			return err
		}
		return printAuditEvents(cmdCtx.Out, events)
	})
}

func printAuditEvents(w io.Writer, events []model.AuditEvent) error {
	if len(events) == 0 {
		return writeln(w, "No audit events.")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "TIME\tEVENT\tJOB\tMESSAGE\n"); err != nil {
		return err
	}
	for _, e := range events {
		if err := writef(tw, "%s\t%s\t%s\t%s\n",
			e.CreatedAt.UTC().Format(time.RFC3339), e.Type, deref(e.JobID), truncate(e.Message, 80),
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
