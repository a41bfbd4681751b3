package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/pressqueue/config"
	"github.com/target/pressqueue/internal/adapters/audit"
	"github.com/target/pressqueue/internal/adapters/openai"
	"github.com/target/pressqueue/internal/adapters/processor"
	"github.com/target/pressqueue/internal/adapters/reaper"
	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/data"
	"github.com/target/pressqueue/internal/data/cryptoutil"
	"github.com/target/pressqueue/internal/observability/notify/pagerduty"
	"github.com/target/pressqueue/internal/observability/notify/slack"
	"github.com/target/pressqueue/internal/observability/statsd"
	"github.com/target/pressqueue/internal/service"
	"github.com/target/pressqueue/internal/service/failurenotifier"
)

// ServiceContainer holds the shared services built once per process.
type ServiceContainer struct {
	Titles        *service.TitleService // nil when no generator is configured
	Cache         *data.RedisCacheRepo  // nil when Redis is disabled
	AuditSinks    []core.AuditSink      // sinks that receive events alongside Postgres
	Observability ObservabilityContainer

	closers []io.Closer
}

// Close releases sockets and broker connections held by the container.
func (c *ServiceContainer) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// Sink returns the metrics sink, or nil when metrics are disabled.
//
//nolint:ireturn // callers take the statsd.Sink port
func (o ObservabilityContainer) Sink() statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "pressqueue",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: buildFailureNotifier(obsLogger, cfg.Notifications),
		NotifierConfig:  cfg.Notifications,
	}
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{Logger: baseLogger})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:        cfg.Slack.WebhookURL,
			Channel:           cfg.Slack.Channel,
			Username:          cfg.Slack.Username,
			Timeout:           cfg.Timeout,
			RetryLimit:        cfg.RetryLimit,
			CampaignURLPrefix: cfg.Slack.CampaignURLPrefix,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger: baseLogger,
		Sinks:  sinks,
	})
}

// buildAuditSinks dials the AMQP exchange when messaging is enabled. A broker that cannot be
// reached is logged and skipped; Postgres remains the audit system of record.
func buildAuditSinks(logger *slog.Logger, cfg config.MessagingConfig) ([]core.AuditSink, []io.Closer) {
	if !cfg.Enabled {
		return nil, nil
	}
	sink, err := audit.DialAMQPSink(cfg.URL, cfg.Exchange)
	if err != nil {
		logger.Error("failed to connect audit exchange", "exchange", cfg.Exchange, "error", err)
		return nil, nil
	}
	logger.Info("publishing audit events to AMQP", "exchange", cfg.Exchange)
	return []core.AuditSink{sink}, []io.Closer{sink}
}

func newTitleService(deps *ServiceDeps, cache *data.RedisCacheRepo) *service.TitleService {
	cfg := deps.Config
	if deps.DB == nil || !cfg.Generator.Configured() {
		return nil
	}
	generator, err := openai.NewClient(openai.ClientOptions{Config: cfg.Generator, Logger: deps.Logger})
	if err != nil {
		deps.Logger.Error("failed to initialise generator for title suggestions", "error", err)
		return nil
	}

	var history *core.TitleHistory
	if cache != nil {
		history = core.NewTitleHistory(cache, core.TitleHistoryConfig{
			TTL:       cfg.Cache.TitleTTL,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
	}

	titles, err := service.NewTitleService(service.TitleServiceOptions{
		Campaigns: data.NewCampaignRepo(deps.DB),
		Generator: generator,
		History:   history,
		Logger:    deps.Logger,
	})
	if err != nil {
		deps.Logger.Error("failed to initialise title service", "error", err)
		return nil
	}
	return titles
}

// NewServices builds the services shared by every enabled mode.
func NewServices(deps *ServiceDeps) ServiceContainer {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	observability := buildObservability(deps.Logger, deps.Config.Observability)

	var cache *data.RedisCacheRepo
	if deps.RedisClient != nil {
		cache = data.NewRedisCacheRepo(deps.RedisClient)
	}

	sinks, closers := buildAuditSinks(deps.Logger, deps.Config.Messaging)
	if observability.MetricsSink != nil {
		closers = append(closers, observability.MetricsSink)
	}

	return ServiceContainer{
		Titles:        newTitleService(deps, cache),
		Cache:         cache,
		AuditSinks:    sinks,
		Observability: observability,
		closers:       closers,
	}
}

// ServiceOrchestrationConfig contains everything RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	encryptor       cryptoutil.Encryptor
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name,
					"error", errMsg,
				)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}
		handles = append(handles, backgroundServiceHandle{mode: svc.mode, name: svc.name, done: done})
	}

	return handles
}

// newProcessorRunner builds the processor runner when the processor mode is enabled.
// It is built before anything starts so the ops server can share its cycle guard.
func newProcessorRunner(deps *serviceStartupDeps) (*processor.Runner, error) {
	if !deps.enabledServices[config.ServiceModeProcessor] {
		return nil, nil
	}
	appCfg := deps.cfg.Config
	obs := deps.cfg.Services.Observability
	return processor.NewRunner(processor.RunnerOptions{
		DB:          deps.cfg.DB,
		RedisClient: deps.cfg.RedisClient,
		Encryptor:   deps.encryptor,
		Config:      appCfg.Processor,
		Generator:   appCfg.Generator,
		Publisher:   appCfg.Publisher,
		Logger:      deps.logger,
		Metrics:     obs.Sink(),
		Notifier:    obs.FailureNotifier,
		ExtraAudit:  deps.cfg.Services.AuditSinks,
	})
}

func newProcessorBackgroundService(runner *processor.Runner) backgroundService {
	return backgroundService{
		mode: config.ServiceModeProcessor,
		name: "queue processor",
		start: func(ctx context.Context) error {
			if runner == nil {
				return nil
			}
			return runner.Run(ctx)
		},
	}
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			r, err := reaper.NewRunner(reaper.RunnerOptions{
				DB:      deps.cfg.DB,
				Config:  deps.cfg.Config.Reaper,
				Logger:  deps.logger,
				Metrics: deps.cfg.Services.Observability.Sink(),
			})
			if err != nil {
				return err
			}
			return r.Run(ctx)
		},
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	OpsServer  *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) (ServiceStartupResult, error) {
	runner, err := newProcessorRunner(deps)
	if err != nil {
		return ServiceStartupResult{}, fmt.Errorf("create processor: %w", err)
	}

	var result ServiceStartupResult
	if deps.enabledServices[config.ServiceModeOpsHTTP] {
		var cycles core.CycleRunner
		if runner != nil {
			cycles = runner.Processor()
		}
		result.OpsServer = StartOpsServer(&OpsServerConfig{
			HTTP:   deps.cfg.Config.OpsHTTP,
			Routes: opsRoutes(deps, cycles),
			Logger: deps.logger,
		})
	}

	result.Background = startBackgroundServices(deps, []backgroundService{
		newProcessorBackgroundService(runner),
		newReaperBackgroundService(deps),
	})
	return result, nil
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	result, err := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		encryptor:       CreateEncryptor(cfg.Config.SitesEncryptionKey, logger),
		enabledServices: enabledServices,
		errCh:           errCh,
	})
	if err != nil {
		return err
	}

	return waitForShutdown(shutdownConfig{
		ctx:             serviceCtx,
		cancel:          cancel,
		errCh:           errCh,
		opsServer:       result.OpsServer,
		shutdownTimeout: cfg.Config.OpsHTTP.ShutdownTimeout,
		logger:          logger,
		backgrounds:     result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx             context.Context
	cancel          context.CancelFunc
	errCh           <-chan error
	signals         <-chan os.Signal
	opsServer       *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	backgrounds     []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := cfg.signals
	if quit == nil {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		quit = sigCh
	}

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop stops the ops server and waits for background services. The processor
// finishes its in-flight attempt before its done channel closes.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.opsServer != nil {
		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: cfg.ctx,
			Server:  cfg.opsServer,
			Timeout: cfg.shutdownTimeout,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
