package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/target/pressqueue/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when routing key missing")
	}
}

func TestBuildEventDefaults(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := client.buildEvent(notify.ContentFailurePayload{
		CampaignID: "camp-1",
		JobID:      "job-1",
		Stage:      notify.StageGeneration,
		Error:      "boom",
		ErrorClass: "generation",
	})

	section, ok := event["payload"].(map[string]any)
	if !ok {
		t.Fatalf("expected payload section")
	}
	if section["severity"] != notify.SeverityCritical {
		t.Fatalf("expected default severity, got %v", section["severity"])
	}
	if section["source"] != "pressqueue" || section["component"] != "content-processor" {
		t.Fatalf("unexpected defaults: %v / %v", section["source"], section["component"])
	}
	custom, ok := section["custom_details"].(map[string]any)
	if !ok {
		t.Fatalf("expected custom details")
	}
	for _, key := range []string{"campaign_id", "job_id", "stage", "error", "error_class"} {
		if _, exists := custom[key]; !exists {
			t.Fatalf("expected key %s in custom details", key)
		}
	}
	if event["dedup_key"] != "camp-1:generation" {
		t.Fatalf("unexpected dedup key %v", event["dedup_key"])
	}
}

func TestSendContentFailureUsesEndpoint(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "rk", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.SendContentFailure(context.Background(), notify.ContentFailurePayload{CampaignID: "c"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["routing_key"] != "rk" || got["event_action"] != "trigger" {
		t.Fatalf("unexpected event: %v", got)
	}
}
