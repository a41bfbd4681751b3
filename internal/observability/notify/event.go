// Package notify defines content failure notifications and the shared webhook delivery loop.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityError    = "error"
	SeverityWarning  = "warning"
)

// Stage names the step of a campaign attempt that failed.
type Stage string

const (
	StageConfiguration Stage = "configuration"
	StageGeneration    Stage = "generation"
	StagePublish       Stage = "publish"
)

// ContentFailurePayload is the canonical data emitted when a campaign attempt fails.
type ContentFailurePayload struct {
	CampaignID  string
	JobID       string
	Topic       string
	ContentType string
	SiteID      string
	Stage       Stage
	Error       string
	ErrorClass  string
	Severity    string
	OccurredAt  time.Time
	Metadata    map[string]string
}

// Sink consumes content failure notifications.
type Sink interface {
	SendContentFailure(ctx context.Context, payload ContentFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload ContentFailurePayload) error

// SendContentFailure implements Sink.
func (f SinkFunc) SendContentFailure(ctx context.Context, payload ContentFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
