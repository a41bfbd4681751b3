// Package pagerduty triggers PagerDuty Events API v2 incidents for failed content jobs.
package pagerduty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/target/pressqueue/internal/observability/notify"
)

// APIEndpoint is the PagerDuty Events API v2 ingest URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

// Config captures runtime configuration for the PagerDuty sink.
type Config struct {
	RoutingKey string
	Source     string
	Component  string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// Endpoint overrides APIEndpoint (tests).
	Endpoint string
}

// Client publishes trigger events.
type Client struct {
	routingKey string
	source     string
	component  string
	endpoint   string
	delivery   notify.Delivery
}

// NewClient constructs a PagerDuty events client. A routing key is required.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
	}
	hc := cfg.Client
	if hc == nil {
		hc = notify.NewHTTPClient(cfg.Timeout)
	}
	return &Client{
		routingKey: key,
		source:     notify.Fallback(strings.TrimSpace(cfg.Source), "pressqueue"),
		component:  notify.Fallback(strings.TrimSpace(cfg.Component), "content-processor"),
		endpoint:   notify.Fallback(strings.TrimSpace(cfg.Endpoint), APIEndpoint),
		delivery:   notify.Delivery{Name: "pagerduty api", Client: hc, RetryLimit: cfg.RetryLimit},
	}, nil
}

// SendContentFailure submits a trigger event.
func (c *Client) SendContentFailure(ctx context.Context, payload notify.ContentFailurePayload) error {
	body, err := json.Marshal(c.buildEvent(payload))
	if err != nil {
		return fmt.Errorf("encode pagerduty payload: %w", err)
	}
	return c.delivery.PostJSON(ctx, c.endpoint, body)
}

func (c *Client) buildEvent(p notify.ContentFailurePayload) map[string]any {
	occurredAt := p.OccurredAt.UTC()
	if p.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	custom := map[string]any{
		"campaign_id":  p.CampaignID,
		"job_id":       p.JobID,
		"topic":        p.Topic,
		"content_type": p.ContentType,
		"site_id":      p.SiteID,
		"stage":        string(p.Stage),
		"error":        p.Error,
		"error_class":  p.ErrorClass,
	}
	for k, v := range p.Metadata {
		if _, exists := custom[k]; !exists {
			custom[k] = v
		}
	}

	// One open incident per campaign and stage; repeated failures update it.
	dedupKey := strings.Trim(fmt.Sprintf("%s:%s", p.CampaignID, p.Stage), ":")

	return map[string]any{
		"routing_key":  c.routingKey,
		"event_action": "trigger",
		"dedup_key":    dedupKey,
		"payload": map[string]any{
			"summary": fmt.Sprintf("Campaign %s %s failed",
				notify.Fallback(p.CampaignID, "unknown"), notify.Fallback(string(p.Stage), "attempt")),
			"severity":       notify.Fallback(strings.ToLower(p.Severity), notify.SeverityCritical),
			"source":         c.source,
			"component":      c.component,
			"timestamp":      occurredAt.Format(time.RFC3339),
			"custom_details": custom,
		},
	}
}
