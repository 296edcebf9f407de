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

type postgresProductRepo struct {
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresProductRepo returns a read-only product profile repository.
func NewPostgresProductRepo(conn *postgres.Connection, log logging.Logger) scan.ProductRepository {
	return &postgresProductRepo{log: log, executor: conn.DB()}
}

const productColumns = `id, tenant_id, brand, sku, category, name, rules, updated_at`

func (r *postgresProductRepo) GetProduct(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ProductProfile, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND tenant_id = $2`
	row := r.executor.QueryRowContext(ctx, query, string(id), string(tenantID))
	p, err := scanProduct(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeProductNotFound, fmt.Sprintf("product %s not found", id))
		}
		if errors.IsCode(err, errors.ErrCodeProductRulesBroken) {
			r.log.Warn("product rules are malformed", logging.String("product_id", string(id)), logging.Err(err))
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get product")
	}
	return p, nil
}

func scanProduct(row scanner) (*scan.ProductProfile, error) {
	var (
		p     scan.ProductProfile
		id    string
		tid   string
		rules []byte
	)
	if err := row.Scan(&id, &tid, &p.Brand, &p.SKU, &p.Category, &p.Name, &rules, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = common.ID(id)
	p.TenantID = common.TenantID(tid)
	p.UpdatedAt = p.UpdatedAt.UTC()
	if len(rules) > 0 && string(rules) != "null" {
		var rc scan.RuleConfig
		if err := json.Unmarshal(rules, &rc); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeProductRulesBroken, "failed to decode product rules")
		}
		p.Rules = &rc
	}
	return &p, nil
}

//Personal.AI order the ending
