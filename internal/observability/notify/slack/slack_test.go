package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/target/pressqueue/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when webhook url missing")
	}
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#content",
		Username:   "bot",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.ContentFailurePayload{
		CampaignID:  "camp-1",
		JobID:       "job-9",
		Topic:       "espresso <basics>",
		ContentType: "listicle",
		SiteID:      "site-1",
		Stage:       notify.StagePublish,
		Error:       "publish to site site-1 (auth): 401",
		ErrorClass:  "publish_auth",
		Metadata:    map[string]string{"attempt": "1"},
	})

	if msg["username"] != "bot" || msg["channel"] != "#content" {
		t.Fatalf("unexpected envelope: %v", msg)
	}
	text, _ := msg["text"].(string)
	for _, want := range []string{"Content job failed", "job-9", "publish", "camp-1", "espresso &lt;basics&gt;", "listicle", "publish_auth", "attempt: 1"} {
		if !strings.Contains(text, want) {
			t.Fatalf("message text missing %q: %s", want, text)
		}
	}
}

func TestFormatMessageCampaignLink(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL:        "https://hooks.slack.com/services/test",
		CampaignURLPrefix: "https://dash.example.com/campaigns",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, _ := client.formatMessage(notify.ContentFailurePayload{CampaignID: "camp-1"})["text"].(string)
	if !strings.Contains(text, "<https://dash.example.com/campaigns/camp-1|camp-1>") {
		t.Fatalf("expected campaign link, got %s", text)
	}
}

func TestSendContentFailurePostsJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.SendContentFailure(context.Background(), notify.ContentFailurePayload{JobID: "job-1"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["username"] != "pressqueue" {
		t.Fatalf("expected default username, got %v", got["username"])
	}
}
