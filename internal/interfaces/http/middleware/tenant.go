package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// tenantContextKey is the unexported key type for storing caller identity in context.
type tenantContextKey struct{}

// TenantValidatorFunc validates a tenant ID against an external source.
type TenantValidatorFunc func(ctx context.Context, tenantID string) (bool, error)

// TenantInfo is the caller identity injected into the request context.
type TenantInfo struct {
	ID     string `json:"id"`
	UserID string `json:"user_id,omitempty"`
}

// TenantConfig holds configuration for the tenant middleware.
type TenantConfig struct {
	// HeaderName carries the tenant ID. Default: "X-Tenant-ID".
	HeaderName string

	// UserHeader carries the submitting user ID. Default: "X-User-ID".
	UserHeader string

	// QueryParam is the fallback for tenant ID extraction. Default: "tenant_id".
	QueryParam string

	// Required rejects requests without a tenant ID with 400.
	Required bool

	// AllowedTenants is an optional whitelist; empty disables the check.
	AllowedTenants []string

	// TenantValidator is called after format and whitelist checks pass.
	TenantValidator TenantValidatorFunc
}

// identifierPattern: alphanumeric, underscore, hyphen, length 1-64.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// DefaultTenantConfig returns a TenantConfig with the service defaults.
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		HeaderName: "X-Tenant-ID",
		UserHeader: "X-User-ID",
		QueryParam: "tenant_id",
		Required:   true,
	}
}

// NewTenantMiddleware resolves the tenant (header, then query parameter) and
// the optional user ID, validates both and injects TenantInfo.
func NewTenantMiddleware(cfg TenantConfig, logger logging.Logger) func(http.Handler) http.Handler {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Tenant-ID"
	}
	if cfg.UserHeader == "" {
		cfg.UserHeader = "X-User-ID"
	}
	if cfg.QueryParam == "" {
		cfg.QueryParam = "tenant_id"
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	var allowedSet map[string]struct{}
	if len(cfg.AllowedTenants) > 0 {
		allowedSet = make(map[string]struct{}, len(cfg.AllowedTenants))
		for _, t := range cfg.AllowedTenants {
			allowedSet[strings.TrimSpace(t)] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := extractTenantID(r, cfg.HeaderName, cfg.QueryParam)
			if tenantID == "" {
				if cfg.Required {
					logger.Warn("tenant ID missing",
						logging.String("method", r.Method),
						logging.String("path", r.URL.Path),
					)
					writeMiddlewareError(w, http.StatusBadRequest, errors.ErrCodeValidation,
						"tenant ID is required: provide via header or query parameter")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !identifierPattern.MatchString(tenantID) {
				writeMiddlewareError(w, http.StatusBadRequest, errors.ErrCodeValidation,
					fmt.Sprintf("invalid tenant ID format: must match [a-zA-Z0-9_-]{1,64}, got %q", tenantID))
				return
			}

			userID := strings.TrimSpace(r.Header.Get(cfg.UserHeader))
			if userID != "" && !identifierPattern.MatchString(userID) {
				writeMiddlewareError(w, http.StatusBadRequest, errors.ErrCodeValidation,
					fmt.Sprintf("invalid user ID format: got %q", userID))
				return
			}

			if allowedSet != nil {
				if _, ok := allowedSet[tenantID]; !ok {
					logger.Warn("tenant ID not in allowed list", logging.TenantID(tenantID))
					writeMiddlewareError(w, http.StatusForbidden, errors.ErrCodeForbidden,
						fmt.Sprintf("tenant %q is not permitted", tenantID))
					return
				}
			}

			if cfg.TenantValidator != nil {
				valid, err := cfg.TenantValidator(r.Context(), tenantID)
				if err != nil {
					logger.Error("tenant validation failed", logging.TenantID(tenantID), logging.Err(err))
					writeMiddlewareError(w, http.StatusInternalServerError, errors.ErrCodeInternal,
						"tenant validation error")
					return
				}
				if !valid {
					writeMiddlewareError(w, http.StatusForbidden, errors.ErrCodeForbidden,
						fmt.Sprintf("tenant %q is not authorized", tenantID))
					return
				}
			}

			info := &TenantInfo{ID: tenantID, UserID: userID}
			recordCaller(r.Context(), info)
			r = r.WithContext(WithTenant(r.Context(), info))
			w.Header().Set(cfg.HeaderName, tenantID)

			next.ServeHTTP(w, r)
		})
	}
}

// WithTenant stores info in ctx. Exposed for handler tests.
func WithTenant(ctx context.Context, info *TenantInfo) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, info)
}

// TenantFromContext retrieves TenantInfo from the request context.
func TenantFromContext(ctx context.Context) (*TenantInfo, bool) {
	info, ok := ctx.Value(tenantContextKey{}).(*TenantInfo)
	return info, ok && info != nil
}

// ContextGetTenantID returns the resolved tenant ID or "".
func ContextGetTenantID(ctx context.Context) string {
	if info, ok := TenantFromContext(ctx); ok {
		return info.ID
	}
	return ""
}

// ContextGetUserID returns the resolved user ID or "".
func ContextGetUserID(ctx context.Context) string {
	if info, ok := TenantFromContext(ctx); ok {
		return info.UserID
	}
	return ""
}

func extractTenantID(r *http.Request, headerName, queryParam string) string {
	if v := strings.TrimSpace(r.Header.Get(headerName)); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get(queryParam))
}

// middlewareErrorResponse mirrors handlers.ErrorResponse so clients see one
// error shape regardless of which layer rejected the request.
type middlewareErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeMiddlewareError(w http.ResponseWriter, statusCode int, code errors.ErrorCode, message string) {
	resp := middlewareErrorResponse{}
	resp.Error.Code = string(code)
	resp.Error.Message = message

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

//Personal.AI order the ending
