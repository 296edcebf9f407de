// Package repositories provides PostgreSQL-backed implementations of the scan
// and quota repository interfaces.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// queryExecutor abstracts sql.DB and sql.Tx
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// nullableID turns an optional id into a driver value.
func nullableID(id *common.ID) interface{} {
	if id == nil || *id == "" {
		return nil
	}
	return string(*id)
}

func idFromNull(ns sql.NullString) *common.ID {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	id := common.ID(ns.String)
	return &id
}

func timeFromNull(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

//Personal.AI order the ending
