package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// WindowLimiter is a fixed-window request counter shared by every API
// replica. Each window gets its own key so counters never need resetting.
type WindowLimiter struct {
	client *Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// WindowResult is the outcome of one Allow call.
type WindowResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// NewWindowLimiter allows limit requests per key per window.
func NewWindowLimiter(client *Client, limit int, window time.Duration) *WindowLimiter {
	if window <= 0 {
		window = time.Second
	}
	return &WindowLimiter{client: client, prefix: "cfd:ratelimit:", limit: limit, window: window, now: time.Now}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) (WindowResult, error) {
	now := l.now()
	slot := now.UnixNano() / int64(l.window)
	resetAt := time.Unix(0, (slot+1)*int64(l.window))
	k := fmt.Sprintf("%s%s:%d", l.prefix, key, slot)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return WindowResult{}, errors.Wrap(err, errors.ErrCodeCacheError, "rate limit counter")
	}

	count := int(incr.Val())
	res := WindowResult{Limit: l.limit, ResetAt: resetAt, Allowed: count <= l.limit}
	if rem := l.limit - count; rem > 0 {
		res.Remaining = rem
	}
	return res, nil
}

//Personal.AI order the ending
