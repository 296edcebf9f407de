package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// UsageReader reports the caller's current month against its plan.
type UsageReader interface {
	Usage(ctx context.Context, tenantID common.TenantID) (*quota.Usage, error)
}

// UsageHandler serves GET /api/v1/usage.
type UsageHandler struct {
	quota  UsageReader
	logger logging.Logger
}

func NewUsageHandler(q UsageReader, logger logging.Logger) *UsageHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &UsageHandler{quota: q, logger: logger.Named("usage_handler")}
}

func (h *UsageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/usage", h.Get)
}

func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := caller(r)
	usage, err := h.quota.Usage(r.Context(), tenantID)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

//Personal.AI order the ending
