package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

func pingOK(context.Context) error   { return nil }
func pingDown(context.Context) error { return stderrors.New("connection refused") }

func probe(t *testing.T, h http.HandlerFunc, path string) (int, ReadinessResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, path, nil))
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestHealth_Liveness(t *testing.T) {
	h := NewHealthHandler("1.2.3", CheckerFunc("postgres", pingDown))
	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealth_ReadinessAllUp(t *testing.T) {
	h := NewHealthHandler("v", CheckerFunc("redis", pingOK), CheckerFunc("postgres", pingOK))
	code, resp := probe(t, h.Readiness, "/readyz")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, common.HealthUp, resp.Status)
	require.Len(t, resp.Components, 2)
	assert.Equal(t, "postgres", resp.Components[0].Name)
}

func TestHealth_ReadinessCriticalDown(t *testing.T) {
	h := NewHealthHandler("v", CheckerFunc("postgres", pingDown), CheckerFunc("redis", pingOK))
	code, resp := probe(t, h.Readiness, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, common.HealthDown, resp.Status)
	assert.Equal(t, "connection refused", resp.Components[0].Message)
}

func TestHealth_OptionalDownDegrades(t *testing.T) {
	h := NewHealthHandler("v", CheckerFunc("postgres", pingOK)).WithOptional(CheckerFunc("opensearch", pingDown))
	code, resp := probe(t, h.Readiness, "/readyz")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, common.HealthDegraded, resp.Status)
	assert.Equal(t, common.HealthDegraded, resp.Components[0].Status)
}

func TestHealth_NoCheckers(t *testing.T) {
	code, resp := probe(t, NewHealthHandler("v").Readiness, "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, common.HealthUp, resp.Status)
}

func TestHealth_Detailed(t *testing.T) {
	code, resp := probe(t, NewHealthHandler("9.9", CheckerFunc("minio", pingOK)).Detailed, "/healthz/detail")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "9.9", resp.Version)
	assert.NotEmpty(t, resp.Uptime)
}

//Personal.AI order the ending
