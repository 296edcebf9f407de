package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// usageRetention keeps a month's counters around long enough to be read
// after the month closes.
const usageRetention = 62 * 24 * time.Hour

// UsageCounter keeps monthly scan counters in a Redis hash per tenant and
// month. HINCRBY makes increments atomic across processes.
type UsageCounter struct {
	client *Client
	prefix string
}

func NewUsageCounter(client *Client) *UsageCounter {
	return &UsageCounter{client: client, prefix: "cfd:usage:"}
}

var _ quota.UsageRepository = (*UsageCounter)(nil)

func (u *UsageCounter) key(tenantID common.TenantID, month quota.Month) string {
	return fmt.Sprintf("%s%s:%s", u.prefix, tenantID, month)
}

func (u *UsageCounter) GetOrCreateUsagePeriod(ctx context.Context, tenantID common.TenantID, month quota.Month) (*quota.UsagePeriod, error) {
	fields, err := u.client.HGetAll(ctx, u.key(tenantID, month)).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to read usage counters")
	}
	return periodFromHash(tenantID, month, fields)
}

func (u *UsageCounter) IncrementUsage(ctx context.Context, tenantID common.TenantID, month quota.Month, tier quota.Tier) (*quota.UsagePeriod, error) {
	if tier != quota.TierLocal && tier != quota.TierHigh {
		return nil, errors.InvalidParam(fmt.Sprintf("unknown quota tier %q", tier))
	}
	key := u.key(tenantID, month)

	pipe := u.client.TxPipeline()
	pipe.HIncrBy(ctx, key, string(tier), 1)
	pipe.Expire(ctx, key, usageRetention)
	all := pipe.HGetAll(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUsageUpdateFailed, "failed to increment usage")
	}
	return periodFromHash(tenantID, month, all.Val())
}

func periodFromHash(tenantID common.TenantID, month quota.Month, fields map[string]string) (*quota.UsagePeriod, error) {
	p := &quota.UsagePeriod{TenantID: tenantID, Month: month}
	for field, dst := range map[string]*int{string(quota.TierLocal): &p.LocalUsed, string(quota.TierHigh): &p.HighUsed} {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCacheError, "corrupt usage counter")
		}
		*dst = n
	}
	return p, nil
}

//Personal.AI order the ending
