package model

import (
	"strings"
	"time"
)

// ContentJobStatus is the lifecycle state of a content job.
type ContentJobStatus string

const (
	// ContentJobStatusPending is set when the ledger row is created.
	ContentJobStatusPending ContentJobStatus = "pending"
	// ContentJobStatusInProgress is set right before the generator is invoked.
	ContentJobStatusInProgress ContentJobStatus = "in_progress"
	// ContentJobStatusCompleted marks a published job.
	ContentJobStatusCompleted ContentJobStatus = "completed"
	// ContentJobStatusFailed marks a job that stopped at generation or publishing.
	ContentJobStatusFailed ContentJobStatus = "failed"
)

// Valid reports whether s is a known status.
func (s ContentJobStatus) Valid() bool {
	switch s {
	case ContentJobStatusPending, ContentJobStatusInProgress, ContentJobStatusCompleted, ContentJobStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether the job can no longer change.
func (s ContentJobStatus) Terminal() bool {
	return s == ContentJobStatusCompleted || s == ContentJobStatusFailed
}

// ParseContentJobStatus normalizes a status string and reports whether it is supported.
func ParseContentJobStatus(v string) (ContentJobStatus, bool) {
	s := ContentJobStatus(strings.ToLower(strings.TrimSpace(v)))
	return s, s.Valid()
}

// ContentJob is one attempt to produce and publish content for a campaign.
type ContentJob struct {
	ID            string           `json:"id"`
	CampaignID    string           `json:"campaign_id"`
	Status        ContentJobStatus `json:"status"`
	ContentType   *string          `json:"content_type,omitempty"`
	Title         *string          `json:"title,omitempty"`
	Body          *string          `json:"body,omitempty"`
	Keywords      []string         `json:"keywords,omitempty"`
	ImageURL      *string          `json:"image_url,omitempty"`
	RemotePostID  *string          `json:"remote_post_id,omitempty"`
	RemotePostURL *string          `json:"remote_post_url,omitempty"`
	LastError     *string          `json:"last_error,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
}

// ContentJobListOptions filters ledger listings.
type ContentJobListOptions struct {
	CampaignID *string
	Status     *ContentJobStatus
	Limit      int
	Offset     int
}
