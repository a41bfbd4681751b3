// Package service provides the business logic of pressqueue: the campaign queue processor,
// the campaign write boundary, title suggestions and the content job reaper.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/target/pressqueue/config"
	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/data"
	"github.com/target/pressqueue/internal/domain/contenttype"
	apperrors "github.com/target/pressqueue/internal/errors"
	"github.com/target/pressqueue/internal/observability/metrics"
	"github.com/target/pressqueue/internal/observability/notify"
	"github.com/target/pressqueue/internal/observability/statsd"
)

// FailureNotifier receives content failures for out-of-band alerting.
type FailureNotifier interface {
	NotifyContentFailure(ctx context.Context, payload notify.ContentFailurePayload)
}

// QueueProcessorOptions groups dependencies for QueueProcessor.
type QueueProcessorOptions struct {
	Schedule  core.ScheduleStore     // Required
	Ledger    core.JobLedger         // Required
	Generator core.ContentGenerator  // Required
	Publisher core.Publisher         // Required
	Sites     core.SiteResolver      // Required
	Images    core.ImageGenerator    // Optional: nil disables featured images
	Audit     core.AuditSink         // Optional
	Notifier  FailureNotifier        // Optional
	Lock      core.CycleLock         // Optional: cross-instance lease
	Registry  *contenttype.Registry  // Optional: defaults to the embedded registry
	Selector  *contenttype.Selector  // Optional: defaults to a random selector over Registry
	Config    config.ProcessorConfig // Zero values fall back to defaults
	Clock     data.TimeProvider      // Optional
	Logger    *slog.Logger           // Optional
	Metrics   statsd.Sink            // Optional
}

// QueueProcessor polls due campaigns and turns each into a published post.
// Only one cycle runs at a time per process; a Redis lease extends that across instances.
type QueueProcessor struct {
	schedule  core.ScheduleStore
	ledger    core.JobLedger
	generator core.ContentGenerator
	publisher core.Publisher
	sites     core.SiteResolver
	images    core.ImageGenerator
	audit     core.AuditSink
	notifier  FailureNotifier
	lock      core.CycleLock
	registry  *contenttype.Registry
	selector  *contenttype.Selector
	cfg       config.ProcessorConfig
	clock     data.TimeProvider
	logger    *slog.Logger
	metrics   statsd.Sink

	cycleMu sync.Mutex

	loopMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ core.CycleRunner = (*QueueProcessor)(nil)

// NewQueueProcessor constructs a QueueProcessor.
func NewQueueProcessor(opts QueueProcessorOptions) (*QueueProcessor, error) {
	switch {
	case opts.Schedule == nil:
		return nil, errors.New("ScheduleStore is required")
	case opts.Ledger == nil:
		return nil, errors.New("JobLedger is required")
	case opts.Generator == nil:
		return nil, errors.New("ContentGenerator is required")
	case opts.Publisher == nil:
		return nil, errors.New("Publisher is required")
	case opts.Sites == nil:
		return nil, errors.New("SiteResolver is required")
	}

	cfg := opts.Config
	cfg.Sanitize()

	registry := opts.Registry
	if registry == nil {
		registry = contenttype.Default()
	}
	selector := opts.Selector
	if selector == nil {
		selector = contenttype.NewSelector(registry, nil)
	}
	clock := opts.Clock
	if clock == nil {
		clock = data.RealTimeProvider{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QueueProcessor{
		schedule:  opts.Schedule,
		ledger:    opts.Ledger,
		generator: opts.Generator,
		publisher: opts.Publisher,
		sites:     opts.Sites,
		images:    opts.Images,
		audit:     opts.Audit,
		notifier:  opts.Notifier,
		lock:      opts.Lock,
		registry:  registry,
		selector:  selector,
		cfg:       cfg,
		clock:     clock,
		logger:    logger.With("component", "queue_processor"),
		metrics:   opts.Metrics,
	}, nil
}

// Start runs one cycle immediately and then one per configured interval until Stop is called
// or ctx is cancelled. Calling Start on a running processor is a no-op.
func (p *QueueProcessor) Start(ctx context.Context) error {
	p.loopMu.Lock()
	defer p.loopMu.Unlock()

	if p.cancel != nil {
		p.logger.InfoContext(ctx, "queue processor already running")
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done

	p.logger.InfoContext(ctx, "starting queue processor",
		"interval", p.cfg.Interval,
		"batch_size", p.cfg.BatchSize,
	)
	go p.loop(loopCtx, done)
	return nil
}

// Stop cancels the timer and waits for the loop to exit. An in-flight cycle finishes first.
func (p *QueueProcessor) Stop() {
	p.loopMu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.loopMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("queue processor stopped")
}

// Run starts the processor and blocks until ctx is cancelled.
// Returns nil on graceful shutdown.
func (p *QueueProcessor) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	p.Stop()
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

func (p *QueueProcessor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.runScheduledCycle(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runScheduledCycle(ctx)
		}
	}
}

func (p *QueueProcessor) runScheduledCycle(ctx context.Context) {
	if _, err := p.RunCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.ErrorContext(ctx, "processing cycle failed", "error", err)
	}
}

// RunCycle processes every due campaign once. A cycle requested while another is running
// (or while another instance holds the lease) is reported as skipped and does nothing.
// Only discovery errors are returned; attempt failures are counted in the result.
func (p *QueueProcessor) RunCycle(ctx context.Context) (core.CycleResult, error) {
	wallStart := time.Now()
	res := core.CycleResult{StartedAt: p.clock.Now()}

	if !p.cycleMu.TryLock() {
		p.logger.InfoContext(ctx, "skipping cycle, previous cycle still running")
		return p.skip(res, core.CycleSkipInProgress), nil
	}
	defer p.cycleMu.Unlock()

	if p.lock != nil {
		release, ok, err := p.lock.Acquire(ctx, p.cfg.CycleLockTTL)
		switch {
		case err != nil:
			// The one-active-job index still prevents duplicate jobs without the lease.
			p.logger.WarnContext(ctx, "cycle lease unavailable, running without it", "error", err)
			if p.metrics != nil {
				p.metrics.Count("cycle.lease_error", 1, nil)
			}
		case !ok:
			p.logger.InfoContext(ctx, "skipping cycle, lease held by another instance")
			return p.skip(res, core.CycleSkipLeaseHeld), nil
		default:
			defer release()
		}
	}

	due, err := p.schedule.FindDueCampaigns(ctx, res.StartedAt, p.cfg.BatchSize)
	if err != nil {
		derr := &apperrors.DiscoveryError{Cause: err}
		p.logger.ErrorContext(ctx, "campaign discovery failed", "error", err)
		if p.metrics != nil {
			p.metrics.Count("cycle.discovery_error", 1, nil)
		}
		return res, derr
	}
	res.Due = len(due)

	if len(due) > 0 {
		// Attempts outlive the caller's context so shutdown never strands a job mid-flight.
		work := context.WithoutCancel(ctx)
		for _, c := range due {
			res.Record(p.attempt(work, c))
		}
	}

	res.Duration = time.Since(wallStart)
	metrics.EmitCycle(p.metrics, metrics.CycleMetric{
		Due:       res.Due,
		Completed: res.Completed,
		Failed:    res.Failed,
		Duration:  res.Duration,
	})
	if res.Due == 0 {
		p.logger.DebugContext(ctx, "no campaigns due")
		return res, nil
	}
	p.logger.InfoContext(ctx, "processing cycle finished",
		"due", res.Due,
		"completed", res.Completed,
		"failed", res.Failed,
		"skipped", res.Count(core.AttemptSkipped),
		"duration", res.Duration,
	)
	return res, nil
}

func (p *QueueProcessor) skip(res core.CycleResult, reason core.CycleSkipReason) core.CycleResult {
	res.Skipped = true
	res.SkipReason = reason
	metrics.EmitCycle(p.metrics, metrics.CycleMetric{Skipped: true})
	return res
}

// withTimeout derives a context for one external call. It ignores the parent's cancellation
// but keeps its values.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}
