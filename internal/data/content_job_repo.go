package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/data/pgxutil"
	"github.com/target/pressqueue/internal/domain/model"
	apperrors "github.com/target/pressqueue/internal/errors"
)

const (
	activeJobConstraint = "content_jobs_one_active_per_campaign"

	defaultJobListLimit = 50
	maxJobListLimit     = 500
)

// activeStatuses are the statuses a ledger setter may transition from.
var activeStatuses = []string{string(model.ContentJobStatusPending), string(model.ContentJobStatusInProgress)}

var contentJobColumns = []string{
	"id::text AS id",
	"campaign_id::text AS campaign_id",
	"status",
	"content_type",
	"title",
	"body",
	"keywords",
	"image_url",
	"remote_post_id",
	"remote_post_url",
	"last_error",
	"created_at",
	"started_at",
	"completed_at",
}

type contentJobRow struct {
	ID            string     `db:"id"`
	CampaignID    string     `db:"campaign_id"`
	Status        string     `db:"status"`
	ContentType   *string    `db:"content_type"`
	Title         *string    `db:"title"`
	Body          *string    `db:"body"`
	Keywords      []string   `db:"keywords"`
	ImageURL      *string    `db:"image_url"`
	RemotePostID  *string    `db:"remote_post_id"`
	RemotePostURL *string    `db:"remote_post_url"`
	LastError     *string    `db:"last_error"`
	CreatedAt     time.Time  `db:"created_at"`
	StartedAt     *time.Time `db:"started_at"`
	CompletedAt   *time.Time `db:"completed_at"`
}

func (r contentJobRow) toModel() *model.ContentJob {
	return &model.ContentJob{
		ID:            r.ID,
		CampaignID:    r.CampaignID,
		Status:        model.ContentJobStatus(r.Status),
		ContentType:   r.ContentType,
		Title:         r.Title,
		Body:          r.Body,
		Keywords:      r.Keywords,
		ImageURL:      r.ImageURL,
		RemotePostID:  r.RemotePostID,
		RemotePostURL: r.RemotePostURL,
		LastError:     r.LastError,
		CreatedAt:     r.CreatedAt,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
	}
}

// RepoConfig holds configuration options for the content job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// ContentJobRepo is the content job ledger. It implements core.JobLedger, core.ContentJobReader
// and core.ReaperRepository.
type ContentJobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewContentJobRepo creates a ContentJobRepo.
func NewContentJobRepo(db *sql.DB, cfg RepoConfig) *ContentJobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentJobRepo{DB: db, timeProvider: tp, logger: logger.With("component", "content_job_repo")}
}

// CreateJob inserts a pending job for the campaign.
// Returns core.ErrActiveJobExists when the campaign already has a pending or in-progress job.
func (r *ContentJobRepo) CreateJob(ctx context.Context, campaignID string) (string, error) {
	if campaignID == "" {
		return "", ErrCampaignIDRequired
	}
	now := r.timeProvider.Now().UTC()
	var id string
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO content_jobs (campaign_id, status, created_at, updated_at)
		VALUES ($1, 'pending', $2, $2)
		RETURNING id::text
	`, campaignID, now).Scan(&id)
	if apperrors.IsUniqueViolation(err, activeJobConstraint) {
		return "", core.ErrActiveJobExists
	}
	if err != nil {
		return "", fmt.Errorf("create content job: %w", err)
	}
	return id, nil
}

// SetStatus moves a non-terminal job to status. Moving to in_progress stamps started_at once.
func (r *ContentJobRepo) SetStatus(ctx context.Context, jobID string, status model.ContentJobStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	now := r.timeProvider.Now().UTC()
	b := psql.Update("content_jobs").Set("status", string(status)).Set("updated_at", now)
	switch {
	case status == model.ContentJobStatusInProgress:
		b = b.Set("started_at", sq.Expr("COALESCE(started_at, ?)", now))
	case status.Terminal():
		b = b.Set("completed_at", now)
	}
	return r.execActive(ctx, jobID, b)
}

// SetContent records the generated content on the job.
func (r *ContentJobRepo) SetContent(ctx context.Context, jobID string, params core.SetContentParams) error {
	keywords := params.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	b := psql.Update("content_jobs").
		Set("content_type", params.ContentType).
		Set("title", params.Title).
		Set("body", params.Body).
		Set("keywords", keywords).
		Set("updated_at", r.timeProvider.Now().UTC())
	return r.execActive(ctx, jobID, b)
}

// SetImage records the featured image URL.
func (r *ContentJobRepo) SetImage(ctx context.Context, jobID, imageURL string) error {
	b := psql.Update("content_jobs").
		Set("image_url", imageURL).
		Set("updated_at", r.timeProvider.Now().UTC())
	return r.execActive(ctx, jobID, b)
}

// SetPublished records the remote post and marks the job completed.
func (r *ContentJobRepo) SetPublished(ctx context.Context, jobID string, result model.PublishResult) error {
	now := r.timeProvider.Now().UTC()
	b := psql.Update("content_jobs").
		Set("remote_post_id", result.RemotePostID).
		Set("remote_post_url", result.RemotePostURL).
		Set("status", string(model.ContentJobStatusCompleted)).
		Set("completed_at", now).
		Set("updated_at", now)
	return r.execActive(ctx, jobID, b)
}

// SetFailed records the error detail and marks the job failed.
func (r *ContentJobRepo) SetFailed(ctx context.Context, jobID, errorDetail string) error {
	now := r.timeProvider.Now().UTC()
	b := psql.Update("content_jobs").
		Set("last_error", errorDetail).
		Set("status", string(model.ContentJobStatusFailed)).
		Set("completed_at", now).
		Set("updated_at", now)
	return r.execActive(ctx, jobID, b)
}

func (r *ContentJobRepo) execActive(ctx context.Context, jobID string, b sq.UpdateBuilder) error {
	if jobID == "" {
		return ErrJobIDRequired
	}
	query, args, err := b.Where(sq.Eq{"id": jobID, "status": activeStatuses}).ToSql()
	if err != nil {
		return fmt.Errorf("build content job update: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return requireAffected(res, core.ErrJobNotFound)
}

// GetByID loads a content job.
func (r *ContentJobRepo) GetByID(ctx context.Context, jobID string) (*model.ContentJob, error) {
	jobs, err := r.list(ctx, psql.Select(contentJobColumns...).From("content_jobs").Where(sq.Eq{"id": jobID}))
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, core.ErrJobNotFound
	}
	return jobs[0], nil
}

// List returns jobs newest first, optionally filtered by campaign and status.
func (r *ContentJobRepo) List(ctx context.Context, opts model.ContentJobListOptions) ([]*model.ContentJob, error) {
	q := psql.Select(contentJobColumns...).From("content_jobs").OrderBy("created_at DESC", "id DESC")
	if opts.CampaignID != nil {
		q = q.Where(sq.Eq{"campaign_id": *opts.CampaignID})
	}
	if opts.Status != nil {
		if !opts.Status.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, *opts.Status)
		}
		q = q.Where(sq.Eq{"status": string(*opts.Status)})
	}
	limit, offset := clampPage(opts.Limit, opts.Offset, defaultJobListLimit, maxJobListLimit)
	return r.list(ctx, q.Limit(limit).Offset(offset))
}

func (r *ContentJobRepo) list(ctx context.Context, q sq.SelectBuilder) ([]*model.ContentJob, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build content job query: %w", err)
	}
	var rows []contentJobRow
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		res, qErr := conn.Query(ctx, query, args...)
		if qErr != nil {
			return qErr
		}
		rows, qErr = pgx.CollectRows(res, pgx.RowToStructByName[contentJobRow])
		return qErr
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query content jobs: %w", err)
	}
	out := make([]*model.ContentJob, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}
