package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// HealthChecker is a dependency that can report its health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

type checkerFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (c checkerFunc) Name() string                    { return c.name }
func (c checkerFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// CheckerFunc adapts a ping function, e.g. redis.Client.Ping.
func CheckerFunc(name string, fn func(ctx context.Context) error) HealthChecker {
	return checkerFunc{name: name, fn: fn}
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	critical []HealthChecker
	optional []HealthChecker
	version  string
	startAt  time.Time
	timeout  time.Duration
}

// NewHealthHandler creates a HealthHandler whose checkers are all critical.
func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{
		critical: checkers,
		version:  version,
		startAt:  time.Now(),
		timeout:  5 * time.Second,
	}
}

// WithOptional adds checkers whose failure degrades but does not fail
// readiness. Search indexing and vision providers belong here since the
// pipeline tolerates their loss.
func (h *HealthHandler) WithOptional(checkers ...HealthChecker) *HealthHandler {
	h.optional = append(h.optional, checkers...)
	return h
}

// LivenessResponse is the response for liveness probe.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the response for readiness and detail probes.
type ReadinessResponse struct {
	Status     common.HealthStatus      `json:"status"`
	Version    string                   `json:"version,omitempty"`
	Uptime     string                   `json:"uptime,omitempty"`
	Components []common.ComponentHealth `json:"components,omitempty"`
}

// Liveness handles GET /healthz. It never touches dependencies.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz: 503 when a critical dependency is down.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	resp := h.evaluate(r.Context())
	writeJSON(w, statusFor(resp.Status), resp)
}

// Detailed handles GET /healthz/detail with version and uptime.
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	resp := h.evaluate(r.Context())
	resp.Version = h.version
	resp.Uptime = time.Since(h.startAt).Truncate(time.Second).String()
	writeJSON(w, statusFor(resp.Status), resp)
}

func statusFor(s common.HealthStatus) int {
	if s == common.HealthDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func (h *HealthHandler) evaluate(ctx context.Context) ReadinessResponse {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	critical := checkAll(ctx, h.critical)
	optional := checkAll(ctx, h.optional)

	resp := ReadinessResponse{Status: common.HealthUp}
	for _, c := range critical {
		if c.Status != common.HealthUp {
			resp.Status = common.HealthDown
		}
	}
	for i, c := range optional {
		if c.Status != common.HealthUp {
			optional[i].Status = common.HealthDegraded
			if resp.Status == common.HealthUp {
				resp.Status = common.HealthDegraded
			}
		}
	}
	resp.Components = append(critical, optional...)
	sort.Slice(resp.Components, func(i, j int) bool { return resp.Components[i].Name < resp.Components[j].Name })
	return resp
}

// checkAll runs every checker concurrently. A failing check is recorded,
// never propagated, so one slow dependency cannot hide the others.
func checkAll(ctx context.Context, checkers []HealthChecker) []common.ComponentHealth {
	out := make([]common.ComponentHealth, 0, len(checkers))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range checkers {
		c := c
		g.Go(func() error {
			start := time.Now()
			err := c.Check(gctx)
			ch := common.ComponentHealth{Name: c.Name(), Status: common.HealthUp, Latency: time.Since(start)}
			if err != nil {
				ch.Status = common.HealthDown
				ch.Message = err.Error()
			}
			mu.Lock()
			out = append(out, ch)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

//Personal.AI order the ending
