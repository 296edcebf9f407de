package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

var ErrLeaseNotHeld = errors.New(errors.ErrCodeConflict, "lease not held by this owner")

const defaultLeaseTTL = 30 * time.Second

// Release and renew only touch the key while it still carries our token.
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// Lease is a single-owner lock with a TTL. The stale-job sweeper takes one
// per pass so that only one replica sweeps at a time. While held it is
// renewed every third of its TTL, so a slow sweep does not lose it.
type Lease struct {
	client *Client
	key    string
	token  string
	ttl    time.Duration
	logger logging.Logger

	mu   sync.Mutex
	stop context.CancelFunc
	done chan struct{}
}

// NewLease names a lease. Every process must use the same name for the same
// critical section.
func NewLease(client *Client, name string, ttl time.Duration, log logging.Logger) *Lease {
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &Lease{
		client: client,
		key:    "cfd:lease:" + name,
		token:  uuid.NewString(),
		ttl:    ttl,
		logger: log,
	}
}

// TryLock takes the lease without waiting.
func (l *Lease) TryLock(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "acquire lease")
	}
	if ok {
		l.startRenewal()
	}
	return ok, nil
}

// Unlock releases the lease. It fails with ErrLeaseNotHeld when the lease
// expired and someone else took it.
func (l *Lease) Unlock(ctx context.Context) error {
	l.stopRenewal()
	res, err := releaseScript.Run(ctx, l.client.GetUnderlyingClient(), []string{l.key}, l.token).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "release lease")
	}
	if res == 0 {
		return ErrLeaseNotHeld
	}
	return nil
}

// Renew resets the TTL. False means the lease was lost.
func (l *Lease) Renew(ctx context.Context) (bool, error) {
	res, err := renewScript.Run(ctx, l.client.GetUnderlyingClient(), []string{l.key}, l.token, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (l *Lease) startRenewal() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.stop, l.done = cancel, make(chan struct{})
	go l.renew(ctx, l.done)
}

func (l *Lease) stopRenewal() {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.stop, l.done = nil, nil
	l.mu.Unlock()
	if stop != nil {
		stop()
		<-done
	}
}

func (l *Lease) renew(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := l.Renew(ctx)
			if err != nil {
				if ctx.Err() == nil {
					l.logger.Warn("lease renewal failed", logging.String("key", l.key), logging.Err(err))
				}
				return
			}
			if !ok {
				l.logger.Warn("lease lost", logging.String("key", l.key))
				return
			}
		}
	}
}

//Personal.AI order the ending
