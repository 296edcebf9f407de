package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/quota"
	domainQuota "github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/http/middleware"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

type mockUsageReader struct{ mock.Mock }

func (m *mockUsageReader) Usage(ctx context.Context, tenantID common.TenantID) (*quota.Usage, error) {
	args := m.Called(ctx, tenantID)
	if u := args.Get(0); u != nil {
		return u.(*quota.Usage), args.Error(1)
	}
	return nil, args.Error(1)
}

func serveUsage(h *UsageHandler, tenant string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/api/v1", h.RegisterRoutes)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil)
	req = req.WithContext(middleware.WithTenant(req.Context(), &middleware.TenantInfo{ID: tenant}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUsageHandler_Get(t *testing.T) {
	q := &mockUsageReader{}
	q.On("Usage", mock.Anything, common.TenantID("acme")).Return(&quota.Usage{
		TenantID: "acme",
		Month:    "2026-06",
		Period:   &domainQuota.UsagePeriod{TenantID: "acme", Month: "2026-06", LocalUsed: 3, HighUsed: 1},
		Local:    domainQuota.Decision{Allowed: true, Tier: domainQuota.TierLocal, Used: 3, Limit: 10, Remaining: 7},
		High:     domainQuota.Decision{Allowed: false, Tier: domainQuota.TierHigh, Used: 1, Limit: 1, Remaining: 0},
	}, nil)

	w := serveUsage(NewUsageHandler(q, nil), "acme")

	require.Equal(t, http.StatusOK, w.Code)
	var got quota.Usage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, domainQuota.Month("2026-06"), got.Month)
	assert.Equal(t, 7, got.Local.Remaining)
	assert.False(t, got.High.Allowed)
	assert.Equal(t, 1, got.Period.HighUsed)
}

func TestUsageHandler_Error(t *testing.T) {
	q := &mockUsageReader{}
	q.On("Usage", mock.Anything, common.TenantID("acme")).Return(nil, errors.New(errors.ErrCodeDatabaseError, "load usage period"))

	w := serveUsage(NewUsageHandler(q, nil), "acme")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "load usage period")
}

//Personal.AI order the ending
