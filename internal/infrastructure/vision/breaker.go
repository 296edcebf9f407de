package vision

import (
	"sync"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// BreakerState is the state of a provider circuit breaker.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateHalfOpen
	StateOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned while a provider is cooling down.
var ErrBreakerOpen = errors.New(errors.ErrCodeVisionUnavailable, "vision provider circuit open")

// BreakerConfig tunes a breaker.
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"` // consecutive failures before opening
	SuccessThreshold int           `mapstructure:"success_threshold"` // half-open successes before closing
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
	HalfOpenRequests int           `mapstructure:"half_open_requests"`
}

func (c *BreakerConfig) applyDefaults() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 1
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HalfOpenRequests <= 0 {
		c.HalfOpenRequests = 1
	}
}

// Breaker guards one provider. A provider that keeps failing is skipped
// until OpenTimeout passes, then probed with HalfOpenRequests calls.
type Breaker struct {
	name   string
	cfg    BreakerConfig
	logger logging.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     BreakerState
	failures  int
	successes int
	inFlight  int
	openedAt  time.Time
}

// NewBreaker returns a closed breaker.
func NewBreaker(name string, cfg BreakerConfig, log logging.Logger) *Breaker {
	cfg.applyDefaults()
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Breaker{name: name, cfg: cfg, logger: log, now: time.Now}
}

// State reports the current state, moving open to half-open once the
// timeout has passed.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()
	return b.state
}

// Allow reserves a call slot or returns ErrBreakerOpen.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()

	switch b.state {
	case StateOpen:
		return ErrBreakerOpen
	case StateHalfOpen:
		if b.inFlight >= b.cfg.HalfOpenRequests {
			return ErrBreakerOpen
		}
	}
	b.inFlight++
	return nil
}

// Done releases the slot taken by Allow and records the outcome.
func (b *Breaker) Done(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFlight > 0 {
		b.inFlight--
	}

	if success {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.successes++
			if b.successes >= b.cfg.SuccessThreshold {
				b.setState(StateClosed)
			}
		}
		return
	}

	switch b.state {
	case StateHalfOpen:
		b.setState(StateOpen)
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.setState(StateOpen)
		}
	}
}

func (b *Breaker) refresh() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.setState(StateHalfOpen)
	}
}

// setState must be called with mu held.
func (b *Breaker) setState(s BreakerState) {
	if b.state == s {
		return
	}
	prev := b.state
	b.state = s
	b.failures = 0
	b.successes = 0
	if s == StateOpen {
		b.openedAt = b.now()
	}
	b.logger.Warn("vision breaker state changed",
		logging.String("provider", b.name),
		logging.String("from", prev.String()),
		logging.String("to", s.String()))
}

//Personal.AI order the ending
