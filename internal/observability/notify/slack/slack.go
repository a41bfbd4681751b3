// Package slack delivers content failure notifications to a Slack incoming webhook.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/target/pressqueue/internal/observability/notify"
)

// Config captures the Slack webhook settings.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// CampaignURLPrefix, when set, links the campaign id to <prefix>/<campaign id>.
	CampaignURLPrefix string
}

// Client posts formatted failure messages to Slack.
type Client struct {
	webhookURL string
	channel    string
	username   string
	linkPrefix string
	delivery   notify.Delivery
}

// NewClient builds a Slack webhook client.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}
	hc := cfg.Client
	if hc == nil {
		hc = notify.NewHTTPClient(cfg.Timeout)
	}
	return &Client{
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   notify.Fallback(strings.TrimSpace(cfg.Username), "pressqueue"),
		linkPrefix: strings.TrimSpace(cfg.CampaignURLPrefix),
		delivery:   notify.Delivery{Name: "slack webhook", Client: hc, RetryLimit: cfg.RetryLimit},
	}, nil
}

// SendContentFailure posts the failure to the webhook.
func (c *Client) SendContentFailure(ctx context.Context, payload notify.ContentFailurePayload) error {
	body, err := json.Marshal(c.formatMessage(payload))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	return c.delivery.PostJSON(ctx, c.webhookURL, body)
}

func (c *Client) formatMessage(p notify.ContentFailurePayload) map[string]any {
	var text strings.Builder
	text.WriteString("*Content job failed*")
	if p.JobID != "" {
		fmt.Fprintf(&text, " `%s`", p.JobID)
	}
	if p.Stage != "" {
		fmt.Fprintf(&text, " (%s)", p.Stage)
	}
	text.WriteByte('\n')

	fields := []struct{ label, value string }{
		{"Severity", notify.Fallback(p.Severity, notify.SeverityCritical)},
		{"Campaign", c.campaignValue(p.CampaignID)},
		{"Topic", escape(p.Topic)},
		{"Content type", p.ContentType},
		{"Site", p.SiteID},
		{"Error class", p.ErrorClass},
		{"Error", escape(p.Error)},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) != "" {
			fmt.Fprintf(&text, "• %s: %s\n", f.label, f.value)
		}
	}
	if len(p.Metadata) > 0 {
		keys := make([]string, 0, len(p.Metadata))
		for k := range p.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		text.WriteString("• Metadata:\n")
		for _, k := range keys {
			fmt.Fprintf(&text, "    • %s: %s\n", k, escape(p.Metadata[k]))
		}
	}
	ts := p.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	text.WriteString("• Timestamp: " + ts.UTC().Format(time.RFC3339))

	msg := map[string]any{"text": text.String(), "username": c.username}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}

func (c *Client) campaignValue(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || c.linkPrefix == "" {
		return escape(id)
	}
	u, err := url.Parse(c.linkPrefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return escape(id)
	}
	link, err := url.JoinPath(u.String(), id)
	if err != nil {
		return escape(id)
	}
	return fmt.Sprintf("<%s|%s>", link, escape(id))
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(v string) string { return slackEscaper.Replace(v) }
