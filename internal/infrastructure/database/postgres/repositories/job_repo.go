package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/postgres"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

type postgresJobRepo struct {
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresJobRepo returns the scan job repository. Every status change is
// a single conditional UPDATE so concurrent workers race on the row, not in
// memory.
func NewPostgresJobRepo(conn *postgres.Connection, log logging.Logger) scan.JobRepository {
	return &postgresJobRepo{log: log, executor: conn.DB()}
}

const jobColumns = `id, tenant_id, user_id, product_id, reference_id, scan_type, image_path, status, error_message, created_at, started_at, finished_at`

func (r *postgresJobRepo) Create(ctx context.Context, job *scan.ScanJob) error {
	query := `
		INSERT INTO scan_jobs (
			id, tenant_id, user_id, product_id, reference_id, scan_type, image_path,
			status, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.executor.ExecContext(ctx, query,
		string(job.ID), string(job.TenantID), string(job.UserID),
		nullableID(job.ProductID), nullableID(job.ReferenceID),
		string(job.ScanType), job.ImagePath, string(job.Status), job.ErrorMessage, job.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrap(err, errors.ErrCodeConflict, "scan job already exists")
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create scan job")
	}
	return nil
}

func (r *postgresJobRepo) Get(ctx context.Context, id common.ID) (*scan.ScanJob, error) {
	query := `SELECT ` + jobColumns + ` FROM scan_jobs WHERE id = $1`
	job, err := scanJob(r.executor.QueryRowContext(ctx, query, string(id)))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, jobNotFound(id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get scan job")
	}
	return job, nil
}

func (r *postgresJobRepo) Claim(ctx context.Context, id common.ID, now time.Time) (*scan.ScanJob, error) {
	query := `
		UPDATE scan_jobs SET status = 'PROCESSING', started_at = $2
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + jobColumns
	job, err := scanJob(r.executor.QueryRowContext(ctx, query, string(id), now.UTC()))
	if err == nil {
		return job, nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to claim scan job")
	}
	status, err := r.status(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, errors.New(errors.ErrCodeScanAlreadyClaimed,
		fmt.Sprintf("scan job %s is %s", id, status))
}

func (r *postgresJobRepo) MarkCompleted(ctx context.Context, id common.ID, now time.Time) error {
	query := `
		UPDATE scan_jobs SET status = 'COMPLETED', finished_at = $2
		WHERE id = $1 AND status = 'PROCESSING'
	`
	return r.transition(ctx, id, scan.JobCompleted, query, string(id), now.UTC())
}

func (r *postgresJobRepo) MarkFailed(ctx context.Context, id common.ID, reason string, now time.Time) error {
	query := `
		UPDATE scan_jobs SET status = 'FAILED', error_message = $2, finished_at = $3
		WHERE id = $1 AND status IN ('PENDING', 'PROCESSING')
	`
	return r.transition(ctx, id, scan.JobFailed, query, string(id), reason, now.UTC())
}

// transition runs a conditional update and, when it matched nothing, tells a
// missing job apart from one in the wrong state.
func (r *postgresJobRepo) transition(ctx context.Context, id common.ID, to scan.JobStatus, query string, args ...interface{}) error {
	res, err := r.executor.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, fmt.Sprintf("failed to mark scan job %s", to))
	}
	rows, _ := res.RowsAffected()
	if rows > 0 {
		return nil
	}
	status, err := r.status(ctx, id)
	if err != nil {
		return err
	}
	return errors.New(errors.ErrCodeScanJobInvalidState,
		fmt.Sprintf("illegal status transition %q → %q for scan job %s", status, to, id))
}

func (r *postgresJobRepo) status(ctx context.Context, id common.ID) (scan.JobStatus, error) {
	var s string
	err := r.executor.QueryRowContext(ctx, `SELECT status FROM scan_jobs WHERE id = $1`, string(id)).Scan(&s)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", jobNotFound(id)
		}
		return "", errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read scan job status")
	}
	return scan.JobStatus(s), nil
}

func (r *postgresJobRepo) FailStale(ctx context.Context, cutoff time.Time, reason string, now time.Time) (int64, error) {
	query := `
		UPDATE scan_jobs SET status = 'FAILED', error_message = $2, finished_at = $3
		WHERE status = 'PROCESSING' AND started_at < $1
	`
	res, err := r.executor.ExecContext(ctx, query, cutoff.UTC(), reason, now.UTC())
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to fail stale scan jobs")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count stale scan jobs")
	}
	if n > 0 {
		r.log.Warn("failed stale scan jobs", logging.Int64("count", n), logging.String("cutoff", cutoff.UTC().Format(time.RFC3339)))
	}
	return n, nil
}

func (r *postgresJobRepo) ListPending(ctx context.Context, limit int) ([]*scan.ScanJob, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + jobColumns + ` FROM scan_jobs WHERE status = 'PENDING' ORDER BY created_at LIMIT $1`
	rows, err := r.executor.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list pending scan jobs")
	}
	defer rows.Close()

	var jobs []*scan.ScanJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan pending scan job")
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate pending scan jobs")
	}
	return jobs, nil
}

func jobNotFound(id common.ID) error {
	return errors.New(errors.ErrCodeScanJobNotFound, fmt.Sprintf("scan job %s not found", id))
}

func scanJob(row scanner) (*scan.ScanJob, error) {
	var (
		j                     scan.ScanJob
		id, tid, uid          string
		productID, refID      sql.NullString
		scanType, status      string
		startedAt, finishedAt sql.NullTime
	)
	err := row.Scan(&id, &tid, &uid, &productID, &refID, &scanType, &j.ImagePath,
		&status, &j.ErrorMessage, &j.CreatedAt, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	j.ID, j.TenantID, j.UserID = common.ID(id), common.TenantID(tid), common.UserID(uid)
	j.ProductID, j.ReferenceID = idFromNull(productID), idFromNull(refID)
	j.ScanType, j.Status = scan.ScanType(scanType), scan.JobStatus(status)
	j.CreatedAt = j.CreatedAt.UTC()
	j.StartedAt, j.FinishedAt = timeFromNull(startedAt), timeFromNull(finishedAt)
	return &j, nil
}

//Personal.AI order the ending
