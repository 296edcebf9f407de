package errors

import (
	"net/http"
	"strings"
)

// ErrorCode identifies a failure class as MODULE_NNN. It is stable across
// releases: API clients switch on it and failed scan jobs persist it.
type ErrorCode string

func (c ErrorCode) String() string { return string(c) }

// Pseudo codes that are never registered. GetCode returns them for nil and
// for errors without an AppError.
const (
	CodeUnknown ErrorCode = "UNKNOWN"
	CodeOK      ErrorCode = "OK"
)

// ─────────────────────────────────────────────────────────────────────────────
// Codes
// ─────────────────────────────────────────────────────────────────────────────

const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeMessageQueue       ErrorCode = "COMMON_017"
	ErrCodeStorage            ErrorCode = "COMMON_018"
	ErrCodeSearch             ErrorCode = "COMMON_019"
)

// Short names used by the generic constructors.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
)

// Scan jobs.
const (
	ErrCodeScanJobNotFound       ErrorCode = "SCAN_001"
	ErrCodeScanJobInvalidState   ErrorCode = "SCAN_002"
	ErrCodeScanJobQueueFull      ErrorCode = "SCAN_003"
	ErrCodeScanResultNotFound    ErrorCode = "SCAN_004"
	ErrCodeScanImageMissing      ErrorCode = "SCAN_005"
	ErrCodeScanTypeInvalid       ErrorCode = "SCAN_006"
	ErrCodeScanAlreadyClaimed    ErrorCode = "SCAN_007"
	ErrCodeScanVerdictInvalid    ErrorCode = "SCAN_008"
	ErrCodeScanDispatcherStopped ErrorCode = "SCAN_009"
)

// Quota.
const (
	ErrCodeQuotaExceeded     ErrorCode = "QUOTA_001"
	ErrCodePlanNotFound      ErrorCode = "QUOTA_002"
	ErrCodeUsageUpdateFailed ErrorCode = "QUOTA_003"
)

// Catalog.
const (
	ErrCodeProductNotFound    ErrorCode = "PROD_001"
	ErrCodeProductRulesBroken ErrorCode = "PROD_002"
	ErrCodeReferenceNotFound  ErrorCode = "REF_001"
)

// Vision and evaluation.
const (
	ErrCodeVisionUnavailable   ErrorCode = "VIS_001"
	ErrCodeVisionBadResponse   ErrorCode = "VIS_002"
	ErrCodeVisionImageTooLarge ErrorCode = "VIS_003"
	ErrCodeEvaluationFailed    ErrorCode = "EVAL_001"
)

// ─────────────────────────────────────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────────────────────────────────────

type codeInfo struct {
	status  int
	message string
}

// registry holds the HTTP status and the client-safe message of every code.
// A code missing here answers 500 "unknown error".
var registry = map[ErrorCode]codeInfo{
	ErrCodeInternal:           {http.StatusInternalServerError, "internal server error"},
	ErrCodeBadRequest:         {http.StatusBadRequest, "bad request"},
	ErrCodeForbidden:          {http.StatusForbidden, "forbidden"},
	ErrCodeNotFound:           {http.StatusNotFound, "resource not found"},
	ErrCodeConflict:           {http.StatusConflict, "resource conflict"},
	ErrCodeTooManyRequests:    {http.StatusTooManyRequests, "too many requests"},
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, "service unavailable"},
	ErrCodeTimeout:            {http.StatusGatewayTimeout, "request timeout"},
	ErrCodeValidation:         {http.StatusUnprocessableEntity, "validation failed"},
	ErrCodeSerialization:      {http.StatusInternalServerError, "serialization failed"},
	ErrCodeDatabaseError:      {http.StatusInternalServerError, "database error"},
	ErrCodeCacheError:         {http.StatusInternalServerError, "cache error"},
	ErrCodeFeatureDisabled:    {http.StatusForbidden, "feature disabled"},
	ErrCodeMessageQueue:       {http.StatusInternalServerError, "message queue error"},
	ErrCodeStorage:            {http.StatusInternalServerError, "object storage error"},
	ErrCodeSearch:             {http.StatusInternalServerError, "search index error"},

	ErrCodeScanJobNotFound:       {http.StatusNotFound, "scan job not found"},
	ErrCodeScanJobInvalidState:   {http.StatusConflict, "scan job is not in a valid state for this operation"},
	ErrCodeScanJobQueueFull:      {http.StatusServiceUnavailable, "scan queue is full"},
	ErrCodeScanResultNotFound:    {http.StatusNotFound, "scan result not found"},
	ErrCodeScanImageMissing:      {http.StatusBadRequest, "scan image is missing"},
	ErrCodeScanTypeInvalid:       {http.StatusBadRequest, "invalid scan type"},
	ErrCodeScanAlreadyClaimed:    {http.StatusConflict, "scan job already claimed by another worker"},
	ErrCodeScanVerdictInvalid:    {http.StatusBadRequest, "invalid verification verdict"},
	ErrCodeScanDispatcherStopped: {http.StatusServiceUnavailable, "scan dispatcher is stopped"},

	ErrCodeQuotaExceeded:     {http.StatusTooManyRequests, "monthly scan quota exceeded"},
	ErrCodePlanNotFound:      {http.StatusPaymentRequired, "no active subscription plan"},
	ErrCodeUsageUpdateFailed: {http.StatusInternalServerError, "failed to record scan usage"},

	ErrCodeProductNotFound:    {http.StatusNotFound, "product not found"},
	ErrCodeProductRulesBroken: {http.StatusUnprocessableEntity, "product rule configuration is malformed"},
	ErrCodeReferenceNotFound:  {http.StatusNotFound, "reference fingerprint not found"},

	ErrCodeVisionUnavailable:   {http.StatusBadGateway, "vision provider unavailable"},
	ErrCodeVisionBadResponse:   {http.StatusBadGateway, "vision provider returned an unreadable response"},
	ErrCodeVisionImageTooLarge: {http.StatusRequestEntityTooLarge, "image exceeds the vision provider size limit"},
	ErrCodeEvaluationFailed:    {http.StatusInternalServerError, "scan evaluation failed"},
}

// HTTPStatus is the response status for c.
func (c ErrorCode) HTTPStatus() int {
	if info, ok := registry[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// DefaultMessage is the message sent to clients in place of server-side
// detail.
func (c ErrorCode) DefaultMessage() string {
	if info, ok := registry[c]; ok {
		return info.message
	}
	return "unknown error"
}

// Module is the prefix before the underscore, "UNKNOWN" when there is none.
func (c ErrorCode) Module() string {
	module, _, found := strings.Cut(string(c), "_")
	if !found || module == "" {
		return "UNKNOWN"
	}
	return module
}

// IsServerError reports a 5xx code.
func (c ErrorCode) IsServerError() bool { return c.HTTPStatus() >= http.StatusInternalServerError }

//Personal.AI order the ending
