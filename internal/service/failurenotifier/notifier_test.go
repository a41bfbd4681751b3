package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/target/pressqueue/internal/observability/notify"
)

func captureSink(mu *sync.Mutex, out *[]notify.ContentFailurePayload) notify.Sink {
	return notify.SinkFunc(func(_ context.Context, payload notify.ContentFailurePayload) error {
		mu.Lock()
		defer mu.Unlock()
		*out = append(*out, payload)
		return nil
	})
}

func TestServiceNotifyContentFailure(t *testing.T) {
	var mu sync.Mutex
	var received []notify.ContentFailurePayload
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{Name: "a", Sink: captureSink(&mu, &received)},
			{Name: "b", Sink: captureSink(&mu, &received)},
		},
	})

	svc.NotifyContentFailure(context.Background(), notify.ContentFailurePayload{
		CampaignID: "camp-1",
		JobID:      "job-1",
		Stage:      notify.StagePublish,
	})

	if len(received) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(received))
	}
	if received[0].Severity != notify.SeverityError {
		t.Fatalf("expected severity to default to error, got %s", received[0].Severity)
	}
}

func TestServiceConfigurationFailureIsCritical(t *testing.T) {
	var mu sync.Mutex
	var received []notify.ContentFailurePayload
	svc := NewService(Options{Sinks: []SinkRegistration{{Sink: captureSink(&mu, &received)}}})

	svc.NotifyContentFailure(context.Background(), notify.ContentFailurePayload{
		CampaignID: "camp-1",
		Stage:      notify.StageConfiguration,
	})

	if len(received) != 1 || received[0].Severity != notify.SeverityCritical {
		t.Fatalf("expected one critical payload, got %+v", received)
	}
}

func TestServiceKeepsExplicitSeverity(t *testing.T) {
	var mu sync.Mutex
	var received []notify.ContentFailurePayload
	svc := NewService(Options{Sinks: []SinkRegistration{{Sink: captureSink(&mu, &received)}}})

	svc.NotifyContentFailure(context.Background(), notify.ContentFailurePayload{
		CampaignID: "camp-1",
		Severity:   notify.SeverityWarning,
	})

	if received[0].Severity != notify.SeverityWarning {
		t.Fatalf("expected warning severity to be kept, got %s", received[0].Severity)
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{Sinks: []SinkRegistration{{Name: "nil"}}})
	if svc.Enabled() {
		t.Fatal("expected Enabled() to be false when no sinks registered")
	}
	var nilSvc *Service
	nilSvc.NotifyContentFailure(context.Background(), notify.ContentFailurePayload{CampaignID: "c"})
}

func TestServiceLogsErrors(t *testing.T) {
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "fail",
				Sink: notify.SinkFunc(func(context.Context, notify.ContentFailurePayload) error {
					return errors.New("boom")
				}),
			},
		},
	})

	svc.NotifyContentFailure(context.Background(), notify.ContentFailurePayload{CampaignID: "camp-1"})
}

func TestServiceDropsPayloadWithoutCampaign(t *testing.T) {
	var called bool
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{Sink: notify.SinkFunc(func(context.Context, notify.ContentFailurePayload) error {
				called = true
				return nil
			})},
		},
	})

	svc.NotifyContentFailure(context.Background(), notify.ContentFailurePayload{JobID: "job-1"})
	if called {
		t.Fatal("expected payload without campaign id to be dropped")
	}
}
