package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/data/pgxutil"
	"github.com/target/pressqueue/internal/domain/model"
	apperrors "github.com/target/pressqueue/internal/errors"
)

const (
	defaultCampaignListLimit = 50
	maxCampaignListLimit     = 500
)

// psql builds Postgres queries with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var campaignColumns = []string{
	"id::text AS id",
	"topic",
	"audience",
	"tone",
	"content_types",
	"variables",
	"interval_hours",
	"schedule",
	"next_due_at",
	"active",
	"site_id::text AS site_id",
	"created_at",
	"updated_at",
}

// campaignRow mirrors the campaigns table for pgx struct scanning.
type campaignRow struct {
	ID            string            `db:"id"`
	Topic         string            `db:"topic"`
	Audience      string            `db:"audience"`
	Tone          string            `db:"tone"`
	ContentTypes  []string          `db:"content_types"`
	Variables     map[string]string `db:"variables"`
	IntervalHours *int64            `db:"interval_hours"`
	Schedule      *string           `db:"schedule"`
	NextDueAt     time.Time         `db:"next_due_at"`
	Active        bool              `db:"active"`
	SiteID        *string           `db:"site_id"`
	CreatedAt     time.Time         `db:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at"`
}

func (r campaignRow) toModel() *model.Campaign {
	c := &model.Campaign{
		ID:             r.ID,
		Topic:          r.Topic,
		Audience:       r.Audience,
		Tone:           r.Tone,
		ContentTypes:   r.ContentTypes,
		Variables:      r.Variables,
		LegacySchedule: r.Schedule,
		NextDueAt:      r.NextDueAt,
		Active:         r.Active,
		SiteID:         r.SiteID,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.IntervalHours != nil {
		h := model.IntervalHours(*r.IntervalHours)
		c.IntervalHours = &h
	}
	return c
}

// CampaignRepo provides database operations for campaigns. It implements core.ScheduleStore
// and core.CampaignRepository.
type CampaignRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCampaignRepo creates a CampaignRepo using the system clock.
func NewCampaignRepo(db *sql.DB) *CampaignRepo {
	return &CampaignRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewCampaignRepoWithTimeProvider creates a CampaignRepo with a custom clock (useful for tests).
func NewCampaignRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *CampaignRepo {
	return &CampaignRepo{DB: db, timeProvider: tp}
}

// FindDueCampaigns returns active campaigns linked to a site whose next_due_at <= now,
// ordered by next_due_at ascending.
func (r *CampaignRepo) FindDueCampaigns(ctx context.Context, now time.Time, limit int) ([]*model.Campaign, error) {
	q := dueCampaignsQuery(now, limit)
	return r.query(ctx, q)
}

func dueCampaignsQuery(now time.Time, limit int) sq.SelectBuilder {
	q := psql.Select(campaignColumns...).
		From("campaigns").
		Where(sq.Eq{"active": true}).
		Where(sq.NotEq{"site_id": nil}).
		Where(sq.LtOrEq{"next_due_at": now.UTC()}).
		OrderBy("next_due_at ASC", "id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q
}

// WriteNextDue stores the next due time for a campaign.
func (r *CampaignRepo) WriteNextDue(ctx context.Context, campaignID string, at time.Time) error {
	if campaignID == "" {
		return ErrCampaignIDRequired
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE campaigns SET next_due_at = $2, updated_at = $3 WHERE id = $1`,
		campaignID, at.UTC(), r.timeProvider.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write next due: %w", err)
	}
	return requireAffected(res, core.ErrCampaignNotFound)
}

// Create inserts a campaign. NextDueAt defaults to now when zero so the campaign runs on the next cycle.
func (r *CampaignRepo) Create(ctx context.Context, c *model.Campaign) (*model.Campaign, error) {
	if c == nil {
		return nil, errors.New("campaign is required")
	}
	now := r.timeProvider.Now().UTC()
	nextDue := c.NextDueAt
	if nextDue.IsZero() {
		nextDue = now
	}
	vars := c.Variables
	if vars == nil {
		vars = map[string]string{}
	}
	types := c.ContentTypes
	if types == nil {
		types = []string{}
	}

	query, args, err := psql.Insert("campaigns").
		Columns("topic", "audience", "tone", "content_types", "variables", "interval_hours", "schedule",
			"next_due_at", "active", "site_id", "created_at", "updated_at").
		Values(c.Topic, c.Audience, c.Tone, types, vars, intervalArg(c.IntervalHours), c.LegacySchedule,
			nextDue.UTC(), c.Active, c.SiteID, now, now).
		Suffix("RETURNING " + joinColumns(campaignColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert campaign: %w", err)
	}
	out, err := r.queryOne(ctx, query, args...)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID loads a campaign.
func (r *CampaignRepo) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	query, args, err := psql.Select(campaignColumns...).From("campaigns").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get campaign: %w", err)
	}
	out, err := r.queryOne(ctx, query, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return out, nil
}

// List returns campaigns ordered by next due time.
func (r *CampaignRepo) List(ctx context.Context, opts model.CampaignListOptions) ([]*model.Campaign, error) {
	q := psql.Select(campaignColumns...).From("campaigns").OrderBy("next_due_at ASC", "id ASC")
	if opts.ActiveOnly {
		q = q.Where(sq.Eq{"active": true})
	}
	if opts.DueBefore != nil {
		q = q.Where(sq.LtOrEq{"next_due_at": opts.DueBefore.UTC()})
	}
	limit, offset := clampPage(opts.Limit, opts.Offset, defaultCampaignListLimit, maxCampaignListLimit)
	q = q.Limit(limit).Offset(offset)
	return r.query(ctx, q)
}

// UpdateInterval replaces the numeric interval. The legacy text schedule is cleared.
func (r *CampaignRepo) UpdateInterval(ctx context.Context, id string, interval model.IntervalHours) (*model.Campaign, error) {
	query, args, err := psql.Update("campaigns").
		Set("interval_hours", int64(interval)).
		Set("schedule", nil).
		Set("updated_at", r.timeProvider.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(campaignColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update interval: %w", err)
	}
	return r.updateOne(ctx, query, args...)
}

// SetActive toggles whether the processor picks the campaign up.
func (r *CampaignRepo) SetActive(ctx context.Context, id string, active bool) (*model.Campaign, error) {
	query, args, err := psql.Update("campaigns").
		Set("active", active).
		Set("updated_at", r.timeProvider.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(campaignColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build set active: %w", err)
	}
	return r.updateOne(ctx, query, args...)
}

func (r *CampaignRepo) updateOne(ctx context.Context, query string, args ...any) (*model.Campaign, error) {
	out, err := r.queryOne(ctx, query, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrCampaignNotFound
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

func (r *CampaignRepo) query(ctx context.Context, q sq.SelectBuilder) ([]*model.Campaign, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build campaign query: %w", err)
	}
	var rows []campaignRow
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		res, qErr := conn.Query(ctx, query, args...)
		if qErr != nil {
			return qErr
		}
		rows, qErr = pgx.CollectRows(res, pgx.RowToStructByName[campaignRow])
		return qErr
	}); err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	out := make([]*model.Campaign, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

func (r *CampaignRepo) queryOne(ctx context.Context, query string, args ...any) (*model.Campaign, error) {
	var row campaignRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		res, qErr := conn.Query(ctx, query, args...)
		if qErr != nil {
			return qErr
		}
		row, qErr = pgx.CollectOneRow(res, pgx.RowToStructByName[campaignRow])
		return qErr
	})
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func intervalArg(h *model.IntervalHours) *int64 {
	if h == nil {
		return nil
	}
	v := int64(*h)
	return &v
}
