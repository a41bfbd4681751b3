package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/target/pressqueue/internal/data/pgxutil"
	"github.com/target/pressqueue/internal/domain/model"
)

// AuditEventRepo appends campaign activity events. It implements core.AuditSink.
type AuditEventRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAuditEventRepo creates an AuditEventRepo.
func NewAuditEventRepo(db *sql.DB) *AuditEventRepo {
	return &AuditEventRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// Record appends an event. CreatedAt defaults to now.
func (r *AuditEventRepo) Record(ctx context.Context, event model.AuditEvent) error {
	if event.CampaignID == "" {
		return ErrCampaignIDRequired
	}
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.timeProvider.Now()
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO audit_events (campaign_id, job_id, event_type, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.CampaignID, event.JobID, string(event.Type), event.Message, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

type auditEventRow struct {
	ID         string    `db:"id"`
	CampaignID string    `db:"campaign_id"`
	JobID      *string   `db:"job_id"`
	Type       string    `db:"event_type"`
	Message    string    `db:"message"`
	CreatedAt  time.Time `db:"created_at"`
}

// ListByCampaign returns the newest events for a campaign.
func (r *AuditEventRepo) ListByCampaign(ctx context.Context, campaignID string, limit int) ([]model.AuditEvent, error) {
	lim, _ := clampPage(limit, 0, 50, 500)
	query, args, err := psql.
		Select("id::text AS id", "campaign_id::text AS campaign_id", "job_id::text AS job_id",
			"event_type", "message", "created_at").
		From("audit_events").
		Where(sq.Eq{"campaign_id": campaignID}).
		OrderBy("created_at DESC").
		Limit(lim).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	var rows []auditEventRow
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		res, qErr := conn.Query(ctx, query, args...)
		if qErr != nil {
			return qErr
		}
		rows, qErr = pgx.CollectRows(res, pgx.RowToStructByName[auditEventRow])
		return qErr
	}); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("list audit events: %w", err)
	}

	out := make([]model.AuditEvent, len(rows))
	for i, row := range rows {
		out[i] = model.AuditEvent{
			ID:         row.ID,
			CampaignID: row.CampaignID,
			JobID:      row.JobID,
			Type:       model.AuditEventType(row.Type),
			Message:    row.Message,
			CreatedAt:  row.CreatedAt,
		}
	}
	return out, nil
}
