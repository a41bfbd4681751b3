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
	"github.com/target/pressqueue/internal/data/cryptoutil"
	"github.com/target/pressqueue/internal/data/pgxutil"
	"github.com/target/pressqueue/internal/domain/model"
	apperrors "github.com/target/pressqueue/internal/errors"
)

var siteColumns = []string{
	"id::text AS id",
	"name",
	"base_url",
	"username",
	"app_password_encrypted",
	"default_status",
	"category_ids",
	"created_at",
	"updated_at",
}

type siteRow struct {
	ID                   string    `db:"id"`
	Name                 string    `db:"name"`
	BaseURL              string    `db:"base_url"`
	Username             string    `db:"username"`
	AppPasswordEncrypted string    `db:"app_password_encrypted"`
	DefaultStatus        string    `db:"default_status"`
	CategoryIDs          []int64   `db:"category_ids"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

// SiteRepo stores WordPress sites with application passwords encrypted at rest.
type SiteRepo struct {
	DB           *sql.DB
	Enc          cryptoutil.Encryptor
	timeProvider TimeProvider
}

// NewSiteRepo creates a SiteRepo.
func NewSiteRepo(db *sql.DB, enc cryptoutil.Encryptor) *SiteRepo {
	return &SiteRepo{DB: db, Enc: enc, timeProvider: RealTimeProvider{}}
}

// Create validates and inserts a site, encrypting its application password.
func (r *SiteRepo) Create(ctx context.Context, req *model.CreateSiteRequest) (*model.Site, error) {
	if req == nil {
		return nil, errors.New("create site request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid site")
	}

	cipher, err := r.Enc.Encrypt([]byte(req.AppPassword))
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	categories := req.CategoryIDs
	if categories == nil {
		categories = []int64{}
	}
	now := r.timeProvider.Now().UTC()

	query, args, err := psql.Insert("sites").
		Columns("name", "base_url", "username", "app_password_encrypted", "default_status", "category_ids",
			"created_at", "updated_at").
		Values(req.Name, req.BaseURL, req.Username, cipher, string(req.DefaultStatus), categories, now, now).
		Suffix("RETURNING " + joinColumns(siteColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert site: %w", err)
	}
	row, err := r.queryOne(ctx, query, args...)
	if apperrors.IsUniqueViolation(err, "sites_name_key") {
		return nil, ErrSiteNameExists
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return r.toModel(row)
}

// GetSite loads a site with its decrypted application password.
func (r *SiteRepo) GetSite(ctx context.Context, siteID string) (*model.Site, error) {
	query, args, err := psql.Select(siteColumns...).From("sites").Where(sq.Eq{"id": siteID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get site: %w", err)
	}
	row, err := r.queryOne(ctx, query, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrSiteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get site: %w", err)
	}
	return r.toModel(row)
}

// Delete removes a site. Campaigns pointing at it lose their site link.
func (r *SiteRepo) Delete(ctx context.Context, siteID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sites WHERE id = $1`, siteID)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SiteRepo) queryOne(ctx context.Context, query string, args ...any) (siteRow, error) {
	var row siteRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		res, qErr := conn.Query(ctx, query, args...)
		if qErr != nil {
			return qErr
		}
		row, qErr = pgx.CollectOneRow(res, pgx.RowToStructByName[siteRow])
		return qErr
	})
	return row, err
}

func (r *SiteRepo) toModel(row siteRow) (*model.Site, error) {
	plain, err := r.Enc.Decrypt(row.AppPasswordEncrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt site %s credentials: %w", row.ID, err)
	}
	return &model.Site{
		ID:            row.ID,
		Name:          row.Name,
		BaseURL:       row.BaseURL,
		Username:      row.Username,
		AppPassword:   string(plain),
		DefaultStatus: model.PostStatus(row.DefaultStatus),
		CategoryIDs:   row.CategoryIDs,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}
