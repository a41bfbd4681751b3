package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/data/pgxutil"
)

// Advisory lock namespace for reaper operations, used with pg_try_advisory_xact_lock(major, minor).
const (
	advisoryLockReaperMajor       = 2100
	advisoryLockReaperFailStale   = 1
	advisoryLockReaperDeleteJobs  = 2
	advisoryLockReaperDeleteAudit = 3
)

const staleJobError = "content job abandoned before reaching a terminal state"

// FailStaleJobs fails pending and in-progress jobs whose last update is older than maxAge.
// A job left behind by a crashed processor would otherwise block its campaign forever.
func (r *ContentJobRepo) FailStaleJobs(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	if err := validateReaperBatch(maxAge, batchSize); err != nil {
		return 0, err
	}
	now := r.timeProvider.Now().UTC()
	return r.withReaperLock(ctx, advisoryLockReaperFailStale, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, `
			UPDATE content_jobs
			SET status = 'failed',
				last_error = $3,
				completed_at = $1,
				updated_at = $1
			WHERE id IN (
				SELECT id FROM content_jobs
				WHERE status IN ('pending', 'in_progress')
				  AND updated_at < $2
				ORDER BY updated_at
				LIMIT $4
			)
		`, now, now.Add(-maxAge), staleJobError, batchSize)
	})
}

// DeleteOldJobs deletes terminal jobs with the given status whose completion is older than maxAge.
func (r *ContentJobRepo) DeleteOldJobs(ctx context.Context, params core.DeleteOldJobsParams) (int64, error) {
	if !params.Status.Terminal() {
		return 0, fmt.Errorf("%w: only terminal jobs can be deleted, got %s", ErrInvalidStatus, params.Status)
	}
	if err := validateReaperBatch(params.MaxAge, params.BatchSize); err != nil {
		return 0, err
	}
	cutoff := r.timeProvider.Now().UTC().Add(-params.MaxAge)
	return r.withReaperLock(ctx, advisoryLockReaperDeleteJobs, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, `
			DELETE FROM content_jobs
			WHERE id IN (
				SELECT id FROM content_jobs
				WHERE status = $1
				  AND COALESCE(completed_at, updated_at) < $2
				ORDER BY COALESCE(completed_at, updated_at)
				LIMIT $3
			)
		`, string(params.Status), cutoff, params.BatchSize)
	})
}

// DeleteOldAuditEvents deletes audit rows older than maxAge.
func (r *ContentJobRepo) DeleteOldAuditEvents(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	if err := validateReaperBatch(maxAge, batchSize); err != nil {
		return 0, err
	}
	cutoff := r.timeProvider.Now().UTC().Add(-maxAge)
	return r.withReaperLock(ctx, advisoryLockReaperDeleteAudit, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, `
			DELETE FROM audit_events
			WHERE id IN (
				SELECT id FROM audit_events
				WHERE created_at < $1
				ORDER BY created_at
				LIMIT $2
			)
		`, cutoff, batchSize)
	})
}

// withReaperLock runs exec inside a transaction holding the given advisory lock.
// When another reaper holds the lock it returns 0 without running exec.
func (r *ContentJobRepo) withReaperLock(
	ctx context.Context,
	minor int,
	exec func(*sql.Tx) (sql.Result, error),
) (int64, error) {
	var affected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)",
				advisoryLockReaperMajor, minor).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				r.logger.DebugContext(ctx, "reaper lock held elsewhere", "lock", minor)
				return nil
			}
			res, err := exec(tx)
			if err != nil {
				return err
			}
			affected, err = res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func validateReaperBatch(maxAge time.Duration, batchSize int) error {
	if batchSize <= 0 {
		return errors.New("batch size must be greater than zero")
	}
	if maxAge <= 0 {
		return errors.New("max age must be greater than zero")
	}
	return nil
}
