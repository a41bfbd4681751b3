// Package processor wires the queue processor to Postgres, Redis and the external providers.
package processor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/target/pressqueue/config"
	"github.com/target/pressqueue/internal/adapters/audit"
	"github.com/target/pressqueue/internal/adapters/openai"
	"github.com/target/pressqueue/internal/adapters/wordpress"
	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/data"
	"github.com/target/pressqueue/internal/data/cryptoutil"
	"github.com/target/pressqueue/internal/observability/statsd"
	"github.com/target/pressqueue/internal/service"
)

// Runner owns a QueueProcessor built from configuration.
type Runner struct {
	processor *service.QueueProcessor
	logger    *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB          *sql.DB
	RedisClient redis.UniversalClient // Optional: enables the cross-instance cycle lease
	Encryptor   cryptoutil.Encryptor
	Config      config.ProcessorConfig
	Generator   config.GeneratorConfig
	Publisher   config.PublisherConfig
	Logger      *slog.Logger
	Metrics     statsd.Sink
	Notifier    service.FailureNotifier
	// ExtraAudit receives every audit event alongside the Postgres audit table (e.g. AMQP).
	ExtraAudit []core.AuditSink
	HTTPClient *http.Client

	// Optional dependency injection for testing/decoupling
	Schedule      core.ScheduleStore
	Ledger        core.JobLedger
	ContentClient core.ContentGenerator
	Images        core.ImageGenerator
	Publish       core.Publisher
	Sites         core.SiteResolver
}

// NewRunner creates a new processor runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	deps, err := wireProcessorDependencies(opts)
	if err != nil {
		return nil, err
	}
	p, err := service.NewQueueProcessor(deps)
	if err != nil {
		return nil, fmt.Errorf("create queue processor: %w", err)
	}
	return &Runner{processor: p, logger: opts.Logger}, nil
}

func validateRunnerOptions(opts *RunnerOptions) error {
	needsDB := opts.Schedule == nil || opts.Ledger == nil || opts.Sites == nil
	if needsDB && opts.DB == nil {
		return errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Encryptor == nil {
		opts.Encryptor = &cryptoutil.NoopEncryptor{}
	}
	return nil
}

func wireProcessorDependencies(opts RunnerOptions) (service.QueueProcessorOptions, error) {
	deps := service.QueueProcessorOptions{
		Schedule:  opts.Schedule,
		Ledger:    opts.Ledger,
		Generator: opts.ContentClient,
		Images:    opts.Images,
		Publisher: opts.Publish,
		Sites:     opts.Sites,
		Notifier:  opts.Notifier,
		Config:    opts.Config,
		Logger:    opts.Logger,
		Metrics:   opts.Metrics,
	}

	if deps.Schedule == nil {
		deps.Schedule = data.NewCampaignRepo(opts.DB)
	}
	if deps.Ledger == nil {
		deps.Ledger = data.NewContentJobRepo(opts.DB, data.RepoConfig{Logger: opts.Logger})
	}
	if deps.Sites == nil {
		deps.Sites = data.NewSiteRepo(opts.DB, opts.Encryptor)
	}
	if deps.Publisher == nil {
		deps.Publisher = wordpress.NewPublisher(wordpress.PublisherOptions{
			Config:     opts.Publisher,
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger,
		})
	}
	if deps.Generator == nil {
		client, err := openai.NewClient(openai.ClientOptions{
			Config:     opts.Generator,
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger,
		})
		if err != nil {
			return deps, fmt.Errorf("create content generator: %w", err)
		}
		deps.Generator = client
		if deps.Images == nil && opts.Generator.ImagesEnabled {
			deps.Images = client
		}
	}

	sinks := []core.AuditSink{}
	if opts.DB != nil {
		sinks = append(sinks, data.NewAuditEventRepo(opts.DB))
	}
	sinks = append(sinks, opts.ExtraAudit...)
	deps.Audit = audit.NewFanout(sinks...)

	if opts.RedisClient != nil {
		deps.Lock = data.NewRedisCycleLock(opts.RedisClient, data.DefaultCycleLockKey, opts.Logger)
	}
	return deps, nil
}

// Processor exposes the processor so the ops server triggers cycles on the same guard.
func (r *Runner) Processor() *service.QueueProcessor {
	return r.processor
}

// Run starts the processing loop and blocks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting processor runner")
	return r.processor.Run(ctx)
}
