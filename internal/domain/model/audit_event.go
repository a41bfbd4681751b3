package model

import "time"

// AuditEventType names an entry in the campaign activity feed.
type AuditEventType string

const (
	AuditEventContentPublished   AuditEventType = "content_published"
	AuditEventContentFailed      AuditEventType = "content_failed"
	AuditEventImageSkipped       AuditEventType = "image_skipped"
	AuditEventConfigurationError AuditEventType = "configuration_error"
)

// AuditEvent is an append-only activity record consumed by dashboards and logs.
type AuditEvent struct {
	ID         string         `json:"id"`
	CampaignID string         `json:"campaign_id"`
	JobID      *string        `json:"job_id,omitempty"`
	Type       AuditEventType `json:"event_type"`
	Message    string         `json:"message"`
	CreatedAt  time.Time      `json:"created_at"`
}
