// Package failurenotifier fans content failure notifications out to every configured sink.
package failurenotifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/target/pressqueue/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
}

// Service dispatches content failures to all registered sinks.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
}

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	return &Service{
		logger: logger.With("component", "failure_notifier"),
		sinks:  sinks,
	}
}

// NotifyContentFailure fans the payload out to all sinks and waits for every delivery.
// Configuration failures default to critical since they repeat every cycle until fixed.
func (s *Service) NotifyContentFailure(ctx context.Context, payload notify.ContentFailurePayload) {
	if s == nil || len(s.sinks) == 0 {
		return
	}
	if payload.CampaignID == "" {
		s.logger.WarnContext(ctx, "dropping content failure without campaign id", "stage", payload.Stage)
		return
	}

	if payload.Severity == "" {
		payload.Severity = notify.SeverityError
		if payload.Stage == notify.StageConfiguration {
			payload.Severity = notify.SeverityCritical
		}
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendContentFailure(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "failure notifier delivery error",
					"sink", entry.Name,
					"campaign_id", payload.CampaignID,
					"job_id", payload.JobID,
					"stage", payload.Stage,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}
