package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/projectledger/finance-engine/internal/domain/apperr"
	"github.com/projectledger/finance-engine/internal/infrastructure/persistence/sqlite"
	"github.com/projectledger/finance-engine/pkg/utils"
)

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// getExecutor returns the transaction carried by ctx or the database
func getExecutor(ctx context.Context, db *sql.DB) executor {
	if tx := sqlite.TxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// writeError wraps a failed write, turning unique violations into apperr.ErrConflict
func writeError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("failed to %s: %w: %v", op, apperr.ErrConflict, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// nullTime converts an optional time for storage. Times are stored in UTC so
// text comparison in SQL orders them correctly.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// normalizeGSTIN upper-cases a registration number. Empty means unregistered.
func normalizeGSTIN(gstin string) (string, error) {
	gstin = strings.ToUpper(strings.TrimSpace(gstin))
	if gstin == "" {
		return "", nil
	}
	if err := utils.ValidateGSTIN(gstin); err != nil {
		return "", apperr.NewValidationError("gstin", "%v", err)
	}
	return gstin, nil
}
