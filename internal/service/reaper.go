package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/pressqueue/config"
	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/domain/model"
	"github.com/target/pressqueue/internal/observability/metrics"
	"github.com/target/pressqueue/internal/observability/statsd"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo    core.ReaperRepository // Required: reaper repository
	Config  config.ReaperConfig   // Required: reaper configuration
	Logger  *slog.Logger          // Optional: structured logger
	Metrics statsd.Sink           // Optional: metrics sink (StatsD-compatible)
}

// ReaperService keeps the content job ledger healthy.
//
// Each pass:
// - fails pending or in-progress jobs stranded by a crashed processor, which unblocks their campaigns;
// - deletes completed and failed jobs past retention;
// - deletes audit events past retention.
type ReaperService struct {
	repo    core.ReaperRepository
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ReaperRepository is required")
	}
	cfg := opts.Config
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", cfg.Interval,
			"stale_job_max_age", cfg.StaleJobMaxAge,
			"completed_max_age", cfg.CompletedMaxAge,
			"failed_max_age", cfg.FailedMaxAge,
			"audit_max_age", cfg.AuditMaxAge,
		)
	}

	return &ReaperService{
		repo:    opts.Repo,
		config:  cfg,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	// Spread instances that start together.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.RunOnce(ctx); err != nil {
		s.logCleanupError(err, "initial cleanup")
	}

	return s.runLoop(ctx, ticker)
}

// waitWithJitter sleeps a random duration up to 10% of the interval.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (s *ReaperService) runLoop(ctx context.Context, ticker *time.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logCleanupError(err, "cleanup")
			}
		}
	}
}

// RunOnce performs a single cleanup pass. Every task runs even when an earlier one fails;
// the returned error joins the failures.
func (s *ReaperService) RunOnce(ctx context.Context) error {
	start := time.Now()
	var (
		errs               []error
		allContextCanceled = true
		total              int64
	)

	for _, step := range s.steps() {
		outcome := s.executeCleanupStep(ctx, step)
		total += outcome.count
		metrics.EmitReaper(s.metrics, step.task, outcome.count, outcome.metricErr)
		if outcome.aggregateErr != nil {
			errs = append(errs, outcome.aggregateErr)
			allContextCanceled = allContextCanceled && outcome.canceled
		}
	}

	if s.metrics != nil {
		result := metrics.ResultSuccess
		if len(errs) > 0 {
			result = metrics.ResultError
		}
		s.metrics.Timing("reaper.duration", time.Since(start), map[string]string{"result": result})
		if len(errs) == 0 {
			s.metrics.Gauge("reaper.last_success_epoch", float64(time.Now().Unix()), nil)
		}
	}

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if allContextCanceled && isContextCancellation(joined) {
			return context.Canceled
		}
		return fmt.Errorf("cleanup failed: %w", joined)
	}
	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "reaper pass finished", "rows", total, "duration", time.Since(start))
	}
	return nil
}

type cleanupFunc func(context.Context) (int64, error)

type cleanupStep struct {
	task   string
	label  string
	maxAge time.Duration
	fn     cleanupFunc
}

type cleanupStepOutcome struct {
	count        int64
	metricErr    error
	aggregateErr error
	canceled     bool
}

func (s *ReaperService) steps() []cleanupStep {
	batch := s.config.BatchSize
	return []cleanupStep{
		{
			task:   "fail_stale",
			label:  "fail stale jobs",
			maxAge: s.config.StaleJobMaxAge,
			fn: func(ctx context.Context) (int64, error) {
				return s.repo.FailStaleJobs(ctx, s.config.StaleJobMaxAge, batch)
			},
		},
		{
			task:   "delete_completed",
			label:  "delete old completed jobs",
			maxAge: s.config.CompletedMaxAge,
			fn: func(ctx context.Context) (int64, error) {
				return s.repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
					Status:    model.ContentJobStatusCompleted,
					MaxAge:    s.config.CompletedMaxAge,
					BatchSize: batch,
				})
			},
		},
		{
			task:   "delete_failed",
			label:  "delete old failed jobs",
			maxAge: s.config.FailedMaxAge,
			fn: func(ctx context.Context) (int64, error) {
				return s.repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
					Status:    model.ContentJobStatusFailed,
					MaxAge:    s.config.FailedMaxAge,
					BatchSize: batch,
				})
			},
		},
		{
			task:   "delete_audit",
			label:  "delete old audit events",
			maxAge: s.config.AuditMaxAge,
			fn: func(ctx context.Context) (int64, error) {
				return s.repo.DeleteOldAuditEvents(ctx, s.config.AuditMaxAge, batch)
			},
		},
	}
}

func (s *ReaperService) executeCleanupStep(ctx context.Context, step cleanupStep) cleanupStepOutcome {
	if step.maxAge <= 0 {
		// Retention disabled for this task.
		return cleanupStepOutcome{}
	}
	count, err := drainBatches(ctx, step.fn)
	outcome := cleanupStepOutcome{
		count:     count,
		metricErr: suppressContextCancellation(err),
		canceled:  isContextCancellation(err),
	}
	if err != nil {
		outcome.aggregateErr = fmt.Errorf("%s: %w", step.label, err)
	}
	if count > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, step.label, "count", count, "max_age", step.maxAge)
	}
	return outcome
}

// drainBatches calls fn until it reports no affected rows.
func drainBatches(ctx context.Context, fn cleanupFunc) (int64, error) {
	var total int64
	for {
		count, err := fn(ctx)
		if err != nil {
			return total, err
		}
		total += count
		if count == 0 {
			return total, nil
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
}

func (s *ReaperService) logCleanupError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
