package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_Codes(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
	}{
		{name: "deadline", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, wantCode: ErrCodeCanceled},
		{name: "no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{
			name: "unique with detail",
			err: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: `Key (name)=(blog) already exists.`,
			},
			wantCode:  ErrCodeConflict,
			wantField: "name",
		},
		{
			name: "interval check constraint",
			err: &pgconn.PgError{
				Code:           pgerrcode.CheckViolation,
				ConstraintName: "campaigns_interval_hours_range",
			},
			wantCode:  ErrCodeValidation,
			wantField: "interval_hours",
		},
		{
			name:      "not null",
			err:       &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "topic"},
			wantCode:  ErrCodeValidation,
			wantField: "topic",
		},
		{
			name: "foreign key missing parent",
			err: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (site_id)=(x) is not present in table "sites".`,
			},
			wantCode: ErrCodeForeignKey,
		},
		{
			name:     "other pg error",
			err:      &pgconn.PgError{Code: pgerrcode.DeadlockDetected},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if GetCode(err) != tt.wantCode {
				t.Errorf("code = %q, want %q", GetCode(err), tt.wantCode)
			}
			if GetField(err) != tt.wantField {
				t.Errorf("field = %q, want %q", GetField(err), tt.wantField)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("mapped error must wrap the original")
			}
		})
	}
}

func TestMapDBError_ForeignKeyMessage(t *testing.T) {
	err := MapDBError(&pgconn.PgError{
		Code:   pgerrcode.ForeignKeyViolation,
		Detail: `Key (id)=(x) is still referenced from table "campaigns".`,
	})
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError")
	}
	if appErr.Message != "Cannot delete because this item is in use by a campaign." {
		t.Errorf("message = %q", appErr.Message)
	}
}

func TestMapDBError_Unrecognized(t *testing.T) {
	plain := errors.New("plain")
	if MapDBError(plain) != plain {
		t.Errorf("unrecognized errors must be returned unchanged")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "content_jobs_one_active_per_campaign"}
	if !IsUniqueViolation(pgErr, "content_jobs_one_active_per_campaign") {
		t.Errorf("expected match on constraint")
	}
	if !IsUniqueViolation(pgErr, "") {
		t.Errorf("empty constraint matches any unique violation")
	}
	if IsUniqueViolation(pgErr, "other") {
		t.Errorf("different constraint must not match")
	}
	if IsUniqueViolation(errors.New("x"), "") {
		t.Errorf("plain error is not a unique violation")
	}
}
