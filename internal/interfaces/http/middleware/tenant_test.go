package middleware

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
)

func captureTenant(got **TenantInfo) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, _ = TenantFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func serveTenant(cfg TenantConfig, r *http.Request) (*httptest.ResponseRecorder, *TenantInfo) {
	var got *TenantInfo
	w := httptest.NewRecorder()
	NewTenantMiddleware(cfg, logging.NewNopLogger())(captureTenant(&got)).ServeHTTP(w, r)
	return w, got
}

func decodeMiddlewareError(t *testing.T, w *httptest.ResponseRecorder) middlewareErrorResponse {
	t.Helper()
	var body middlewareErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestTenant_HeaderAndUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/scans", nil)
	r.Header.Set("X-Tenant-ID", "acme")
	r.Header.Set("X-User-ID", "u-42")

	w, info := serveTenant(DefaultTenantConfig(), r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, info)
	assert.Equal(t, "acme", info.ID)
	assert.Equal(t, "u-42", info.UserID)
	assert.Equal(t, "acme", w.Header().Get("X-Tenant-ID"))
}

func TestTenant_QueryFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/usage?tenant_id=acme", nil)
	_, info := serveTenant(DefaultTenantConfig(), r)
	require.NotNil(t, info)
	assert.Equal(t, "acme", info.ID)
	assert.Empty(t, info.UserID)
}

func TestTenant_CustomHeaders(t *testing.T) {
	cfg := DefaultTenantConfig()
	cfg.HeaderName = "X-Org"
	cfg.UserHeader = "X-Actor"
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Org", "org1")
	r.Header.Set("X-Actor", "bob")

	_, info := serveTenant(cfg, r)
	require.NotNil(t, info)
	assert.Equal(t, "org1", info.ID)
	assert.Equal(t, "bob", info.UserID)
}

func TestTenant_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		cfg    func() TenantConfig
		tenant string
		user   string
		status int
	}{
		{"missing", DefaultTenantConfig, "", "", http.StatusBadRequest},
		{"bad tenant format", DefaultTenantConfig, "a b", "", http.StatusBadRequest},
		{"bad user format", DefaultTenantConfig, "acme", "u/1", http.StatusBadRequest},
		{"not whitelisted", func() TenantConfig {
			c := DefaultTenantConfig()
			c.AllowedTenants = []string{"globex"}
			return c
		}, "acme", "", http.StatusForbidden},
		{"validator rejects", func() TenantConfig {
			c := DefaultTenantConfig()
			c.TenantValidator = func(context.Context, string) (bool, error) { return false, nil }
			return c
		}, "acme", "", http.StatusForbidden},
		{"validator errors", func() TenantConfig {
			c := DefaultTenantConfig()
			c.TenantValidator = func(context.Context, string) (bool, error) { return false, stderrors.New("db down") }
			return c
		}, "acme", "", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.tenant != "" {
				r.Header.Set("X-Tenant-ID", tt.tenant)
			}
			if tt.user != "" {
				r.Header.Set("X-User-ID", tt.user)
			}
			w, info := serveTenant(tt.cfg(), r)
			assert.Equal(t, tt.status, w.Code)
			assert.Nil(t, info)
			assert.NotEmpty(t, decodeMiddlewareError(t, w).Error.Code)
		})
	}
}

func TestTenant_OptionalPassesThrough(t *testing.T) {
	cfg := DefaultTenantConfig()
	cfg.Required = false
	w, info := serveTenant(cfg, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, info)
}

func TestContextAccessors(t *testing.T) {
	assert.Empty(t, ContextGetTenantID(context.Background()))
	assert.Empty(t, ContextGetUserID(context.Background()))

	ctx := WithTenant(context.Background(), &TenantInfo{ID: "acme", UserID: "u-1"})
	assert.Equal(t, "acme", ContextGetTenantID(ctx))
	assert.Equal(t, "u-1", ContextGetUserID(ctx))
}

//Personal.AI order the ending
