package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/postgres"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

type postgresHistoryRepo struct {
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresHistoryRepo returns the scan history repository.
func NewPostgresHistoryRepo(conn *postgres.Connection, log logging.Logger) scan.HistoryRepository {
	return &postgresHistoryRepo{log: log, executor: conn.DB()}
}

const historyColumns = `job_id, tenant_id, user_id, product_id, image_path, scan_type, status, risk_score, used_mode, violations, debug_info, vision_origin, verdict, verified_at, evaluated_at, created_at`

func (r *postgresHistoryRepo) SaveResult(ctx context.Context, rec *scan.ScanRecord) error {
	if rec == nil || rec.Result == nil {
		return errors.InvalidParam("scan record has no result")
	}
	violations, err := json.Marshal(rec.Result.Violations)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode violations")
	}
	debug, err := json.Marshal(rec.Result.DebugInfo)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode debug info")
	}

	var verdict interface{}
	if rec.Verdict != nil {
		verdict = string(*rec.Verdict)
	}

	query := `
		INSERT INTO scan_history (
			job_id, tenant_id, user_id, product_id, image_path, scan_type,
			status, risk_score, used_mode, violations, debug_info, vision_origin,
			verdict, verified_at, evaluated_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = r.executor.ExecContext(ctx, query,
		string(rec.JobID), string(rec.TenantID), string(rec.UserID), nullableID(rec.ProductID),
		rec.ImagePath, string(rec.ScanType),
		string(rec.Result.Status), rec.Result.RiskScore, string(rec.Result.Mode),
		violations, debug, string(rec.Origin),
		verdict, nullableTime(rec.VerifiedAt), rec.Result.EvaluatedAt.UTC(), rec.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrap(err, errors.ErrCodeConflict, "scan result already stored")
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save scan result")
	}
	return nil
}

func (r *postgresHistoryRepo) GetByJobID(ctx context.Context, jobID common.ID) (*scan.ScanRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM scan_history WHERE job_id = $1`
	rec, err := scanRecord(r.executor.QueryRowContext(ctx, query, string(jobID)))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeScanResultNotFound, fmt.Sprintf("no result for scan job %s", jobID))
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get scan result")
	}
	return rec, nil
}

func (r *postgresHistoryRepo) SetVerdict(ctx context.Context, jobID common.ID, verdict scan.Verdict, now time.Time) error {
	query := `UPDATE scan_history SET verdict = $2, verified_at = $3 WHERE job_id = $1`
	res, err := r.executor.ExecContext(ctx, query, string(jobID), string(verdict), now.UTC())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to record verdict")
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrCodeScanResultNotFound, fmt.Sprintf("no result for scan job %s", jobID))
	}
	return nil
}

func (r *postgresHistoryRepo) ListForProduct(ctx context.Context, tenantID common.TenantID, productID common.ID, limit int) ([]*scan.ScanRecord, error) {
	if limit <= 0 {
		limit = 200
	}
	// A record whose job lost the race to the stale sweeper stays behind
	// with a FAILED job; it is not history.
	query := `SELECT ` + historyColumns + ` FROM scan_history
		WHERE tenant_id = $1 AND product_id = $2
		AND EXISTS (SELECT 1 FROM scan_jobs j WHERE j.id = scan_history.job_id AND j.status = 'COMPLETED')
		ORDER BY created_at DESC
		LIMIT $3`
	rows, err := r.executor.QueryContext(ctx, query, string(tenantID), string(productID), limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list scan history")
	}
	defer rows.Close()

	var out []*scan.ScanRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			// One undecodable row must not hide the rest of the history.
			r.log.Warn("skipping unreadable scan history row", logging.Err(err))
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate scan history")
	}
	return out, nil
}

func scanRecord(row scanner) (*scan.ScanRecord, error) {
	var (
		rec                scan.ScanRecord
		res                scan.EvaluationResult
		jobID, tid, uid    string
		productID, verdict sql.NullString
		scanType, status   string
		mode, origin       string
		violations, debug  []byte
		verifiedAt         sql.NullTime
	)
	err := row.Scan(&jobID, &tid, &uid, &productID, &rec.ImagePath, &scanType,
		&status, &res.RiskScore, &mode, &violations, &debug, &origin,
		&verdict, &verifiedAt, &res.EvaluatedAt, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		if err := json.Unmarshal(violations, &res.Violations); err != nil {
			return nil, fmt.Errorf("decode violations: %w", err)
		}
	}
	if len(debug) > 0 {
		if err := json.Unmarshal(debug, &res.DebugInfo); err != nil {
			return nil, fmt.Errorf("decode debug info: %w", err)
		}
	}
	res.Status, res.Mode = scan.Status(status), scan.Mode(mode)
	res.EvaluatedAt = res.EvaluatedAt.UTC()

	rec.JobID, rec.TenantID, rec.UserID = common.ID(jobID), common.TenantID(tid), common.UserID(uid)
	rec.ProductID = idFromNull(productID)
	rec.ScanType = scan.ScanType(scanType)
	rec.Origin = scan.Origin(origin)
	rec.Result = &res
	rec.CreatedAt = rec.CreatedAt.UTC()
	if verdict.Valid {
		v := scan.Verdict(verdict.String)
		rec.Verdict = &v
	}
	rec.VerifiedAt = timeFromNull(verifiedAt)
	return &rec, nil
}

//Personal.AI order the ending
