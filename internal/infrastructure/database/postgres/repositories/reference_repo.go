package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/postgres"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

type postgresReferenceRepo struct {
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresReferenceRepo returns a read-only fingerprint repository.
func NewPostgresReferenceRepo(conn *postgres.Connection, log logging.Logger) scan.ReferenceRepository {
	return &postgresReferenceRepo{log: log, executor: conn.DB()}
}

const fingerprintColumns = `id, tenant_id, product_id, colors, logos, ocr_text, ocr_confidence, active, created_at`

// GetFingerprint returns the fingerprint regardless of its active flag; the
// caller decides what an inactive reference means.
func (r *postgresReferenceRepo) GetFingerprint(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ReferenceFingerprint, error) {
	query := `SELECT ` + fingerprintColumns + ` FROM reference_fingerprints WHERE id = $1 AND tenant_id = $2`
	f, err := scanFingerprint(r.executor.QueryRowContext(ctx, query, string(id), string(tenantID)))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeReferenceNotFound, fmt.Sprintf("reference %s not found", id))
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get reference fingerprint")
	}
	return f, nil
}

func (r *postgresReferenceRepo) ListActiveFingerprints(ctx context.Context, tenantID common.TenantID, productID common.ID) ([]*scan.ReferenceFingerprint, error) {
	query := `SELECT ` + fingerprintColumns + ` FROM reference_fingerprints
		WHERE tenant_id = $1 AND product_id = $2 AND active
		ORDER BY created_at DESC`
	rows, err := r.executor.QueryContext(ctx, query, string(tenantID), string(productID))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list reference fingerprints")
	}
	defer rows.Close()

	var out []*scan.ReferenceFingerprint
	for rows.Next() {
		f, err := scanFingerprint(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan reference fingerprint")
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate reference fingerprints")
	}
	return out, nil
}

func scanFingerprint(row scanner) (*scan.ReferenceFingerprint, error) {
	var (
		f             scan.ReferenceFingerprint
		id, tid, pid  string
		colors, logos []byte
	)
	if err := row.Scan(&id, &tid, &pid, &colors, &logos, &f.OCRText, &f.OCRConfidence, &f.Active, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.ID, f.TenantID, f.ProductID = common.ID(id), common.TenantID(tid), common.ID(pid)
	f.CreatedAt = f.CreatedAt.UTC()
	if len(colors) > 0 {
		if err := json.Unmarshal(colors, &f.Colors); err != nil {
			return nil, fmt.Errorf("decode colors: %w", err)
		}
	}
	if len(logos) > 0 {
		if err := json.Unmarshal(logos, &f.Logos); err != nil {
			return nil, fmt.Errorf("decode logos: %w", err)
		}
	}
	return &f, nil
}

//Personal.AI order the ending
