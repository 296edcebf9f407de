package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Read-through caches for product profiles and reference fingerprints
// ─────────────────────────────────────────────────────────────────────────────

// CachedProductRepository serves product profiles from Redis and falls back
// to next on a miss. Not-found results are not cached.
type CachedProductRepository struct {
	next  scan.ProductRepository
	cache Cache
	ttl   time.Duration
}

func NewCachedProductRepository(next scan.ProductRepository, cache Cache, ttl time.Duration) *CachedProductRepository {
	return &CachedProductRepository{next: next, cache: cache, ttl: ttl}
}

func productKey(tenantID common.TenantID, id common.ID) string {
	return fmt.Sprintf("product:%s:%s", tenantID, id)
}

func (r *CachedProductRepository) GetProduct(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ProductProfile, error) {
	var p scan.ProductProfile
	err := r.cache.GetOrSet(ctx, productKey(tenantID, id), &p, r.ttl, func(ctx context.Context) (interface{}, error) {
		return r.next.GetProduct(ctx, tenantID, id)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Invalidate drops the cached profile after it was edited.
func (r *CachedProductRepository) Invalidate(ctx context.Context, tenantID common.TenantID, id common.ID) error {
	return r.cache.Delete(ctx, productKey(tenantID, id))
}

// CachedReferenceRepository caches single fingerprints and the active set per
// product.
type CachedReferenceRepository struct {
	next  scan.ReferenceRepository
	cache Cache
	ttl   time.Duration
}

func NewCachedReferenceRepository(next scan.ReferenceRepository, cache Cache, ttl time.Duration) *CachedReferenceRepository {
	return &CachedReferenceRepository{next: next, cache: cache, ttl: ttl}
}

func (r *CachedReferenceRepository) GetFingerprint(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ReferenceFingerprint, error) {
	var f scan.ReferenceFingerprint
	key := fmt.Sprintf("reference:%s:%s", tenantID, id)
	err := r.cache.GetOrSet(ctx, key, &f, r.ttl, func(ctx context.Context) (interface{}, error) {
		return r.next.GetFingerprint(ctx, tenantID, id)
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *CachedReferenceRepository) ListActiveFingerprints(ctx context.Context, tenantID common.TenantID, productID common.ID) ([]*scan.ReferenceFingerprint, error) {
	var out []*scan.ReferenceFingerprint
	key := fmt.Sprintf("references:%s:%s", tenantID, productID)
	err := r.cache.GetOrSet(ctx, key, &out, r.ttl, func(ctx context.Context) (interface{}, error) {
		return r.next.ListActiveFingerprints(ctx, tenantID, productID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InvalidateProduct drops every cached fingerprint list of a tenant's product.
func (r *CachedReferenceRepository) InvalidateProduct(ctx context.Context, tenantID common.TenantID, productID common.ID) error {
	return r.cache.Delete(ctx, fmt.Sprintf("references:%s:%s", tenantID, productID))
}

//Personal.AI order the ending
