// Package handlers implements the scan API endpoints.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/http/middleware"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// ErrorBody is the error payload.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// caller returns the tenant and user resolved by the tenant middleware.
func caller(r *http.Request) (common.TenantID, common.UserID) {
	return common.TenantID(middleware.ContextGetTenantID(r.Context())),
		common.UserID(middleware.ContextGetUserID(r.Context()))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, statusCode int, code errors.ErrorCode, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: ErrorBody{Code: string(code), Message: message}})
}

// writeAppError maps an error to its code's HTTP status. Server-side
// failures are logged and answered with the code's generic message.
func writeAppError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String("code", string(code)),
			logging.Err(err),
		)
		writeError(w, status, code, code.DefaultMessage())
		return
	}
	writeError(w, status, code, clientMessage(err))
}

func clientMessage(err error) string {
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

//Personal.AI order the ending
