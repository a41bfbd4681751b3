// Package core defines the ports of the pressqueue processor: the stores, collaborators and
// sinks the campaign pipeline depends on. The data and adapters packages implement them.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/target/pressqueue/internal/domain/model"
)

var (
	// ErrActiveJobExists is returned by CreateJob when the campaign already has a non-terminal job.
	ErrActiveJobExists = errors.New("campaign already has an active content job")
	// ErrSiteNotFound is returned by SiteResolver when the linked site no longer exists.
	ErrSiteNotFound = errors.New("site not found")
	// ErrCampaignNotFound is returned when a campaign id does not exist.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrJobNotFound is returned when a content job id does not exist or is already terminal.
	ErrJobNotFound = errors.New("content job not found or already terminal")
)

// ScheduleStore reads due campaigns and writes their next due time.
type ScheduleStore interface {
	// FindDueCampaigns returns active campaigns with a linked site whose next due time is at or
	// before now, oldest due first.
	FindDueCampaigns(ctx context.Context, now time.Time, limit int) ([]*model.Campaign, error)
	// WriteNextDue stores the next due time for a campaign.
	WriteNextDue(ctx context.Context, campaignID string, at time.Time) error
}

// JobLedger persists content job transitions. Every setter only touches non-terminal jobs.
type JobLedger interface {
	// CreateJob inserts a pending job and returns its id, or ErrActiveJobExists.
	CreateJob(ctx context.Context, campaignID string) (string, error)
	SetStatus(ctx context.Context, jobID string, status model.ContentJobStatus) error
	SetContent(ctx context.Context, jobID string, params SetContentParams) error
	SetImage(ctx context.Context, jobID, imageURL string) error
	// SetPublished records the remote post and completes the job.
	SetPublished(ctx context.Context, jobID string, result model.PublishResult) error
	// SetFailed records the error detail and fails the job.
	SetFailed(ctx context.Context, jobID, errorDetail string) error
}

// SetContentParams groups generated content persisted on a job.
type SetContentParams struct {
	ContentType string
	Title       string
	Body        string
	Keywords    []string
}

// ContentJobReader exposes ledger reads for operator tooling.
type ContentJobReader interface {
	GetByID(ctx context.Context, jobID string) (*model.ContentJob, error)
	List(ctx context.Context, opts model.ContentJobListOptions) ([]*model.ContentJob, error)
}

// ContentGenerator produces post content from an AI provider.
type ContentGenerator interface {
	// GenerateTitle proposes a candidate title for the campaign.
	GenerateTitle(ctx context.Context, campaign *model.Campaign) (string, error)
	// GenerateBody produces the full post for a rendered template prompt.
	GenerateBody(ctx context.Context, req model.GenerationRequest) (*model.GeneratedContent, error)
}

// ImageGenerator produces a featured image and returns its URL.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Publisher creates a post on a remote site.
type Publisher interface {
	Publish(ctx context.Context, site *model.Site, content *model.GeneratedContent) (*model.PublishResult, error)
}

// AuditSink appends activity events. Callers log and ignore its errors.
type AuditSink interface {
	Record(ctx context.Context, event model.AuditEvent) error
}

// SiteResolver loads a publishing site with decrypted credentials.
type SiteResolver interface {
	// GetSite returns ErrSiteNotFound when the site does not exist.
	GetSite(ctx context.Context, siteID string) (*model.Site, error)
}

// SiteRepository stores publishing sites.
type SiteRepository interface {
	SiteResolver
	Create(ctx context.Context, req *model.CreateSiteRequest) (*model.Site, error)
	Delete(ctx context.Context, siteID string) (bool, error)
}

// CampaignRepository is the write boundary for campaigns.
type CampaignRepository interface {
	Create(ctx context.Context, c *model.Campaign) (*model.Campaign, error)
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	List(ctx context.Context, opts model.CampaignListOptions) ([]*model.Campaign, error)
	UpdateInterval(ctx context.Context, id string, interval model.IntervalHours) (*model.Campaign, error)
	SetActive(ctx context.Context, id string, active bool) (*model.Campaign, error)
}

// CycleLock guards a processing cycle across processor instances.
type CycleLock interface {
	// Acquire tries to take the lease. When ok is false the caller must skip the cycle.
	Acquire(ctx context.Context, ttl time.Duration) (release func(), ok bool, err error)
}

// ReaperRepository defines the cleanup operations run by the reaper.
type ReaperRepository interface {
	// FailStaleJobs fails non-terminal jobs whose last transition is older than maxAge.
	FailStaleJobs(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error)
	// DeleteOldJobs deletes terminal jobs with the given status older than maxAge.
	DeleteOldJobs(ctx context.Context, params DeleteOldJobsParams) (int64, error)
	// DeleteOldAuditEvents deletes audit rows older than maxAge.
	DeleteOldAuditEvents(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error)
}

// DeleteOldJobsParams groups parameters for DeleteOldJobs.
type DeleteOldJobsParams struct {
	Status    model.ContentJobStatus
	MaxAge    time.Duration
	BatchSize int
}
