// Package errors provides AppError, the coded error every layer returns. The
// code decides the HTTP status of an API response and is recorded on failed
// scan jobs, so callers classify failures with IsCode rather than matching
// message text.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack formats the caller's stack, skipping runtime frames.
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// AppError
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the structured error carried across layers.
//
//	return errors.New(errors.ErrCodeScanJobNotFound, "scan job not found")
//	return errors.Wrap(err, errors.ErrCodeDatabaseError, "load product")
//	return errors.NotFound("reference not found").WithDetail("id=" + id)
type AppError struct {
	Code    ErrorCode
	Message string
	// Detail is debugging context such as entity ids. It appears in Error()
	// but not in API response messages.
	Detail string
	Cause  error
	// Stack is captured by the constructors and never rendered by Error().
	Stack string
}

// Error renders "[code] message: detail | cause: cause". Failed jobs store
// this string, so the cause is kept.
func (e *AppError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Code, e.Message)
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Cause != nil {
		sb.WriteString(" | cause: ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithDetail returns a copy with Detail set. Nil-safe.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a copy with Cause set, so package-level sentinels can be
// returned with the error that triggered them. Nil-safe.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// ─────────────────────────────────────────────────────────────────────────────
// Constructors
// ─────────────────────────────────────────────────────────────────────────────

func build(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause, Stack: captureStack(2)}
}

// New constructs an AppError with no cause.
func New(code ErrorCode, message string) *AppError {
	return build(code, message, nil)
}

// Wrap attaches context to err and returns nil for a nil err. CodeUnknown
// keeps the code of the first AppError in err's chain.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		code = GetCode(err)
	}
	return build(code, message, err)
}

// NotFound is the generic missing-entity error. Repositories prefer the
// module codes such as ErrCodeProductNotFound.
func NotFound(message string) *AppError { return build(CodeNotFound, message, nil) }

// InvalidParam rejects caller input.
func InvalidParam(message string) *AppError { return build(CodeInvalidParam, message, nil) }

// Conflict reports a write that lost a race or violates current state.
func Conflict(message string) *AppError { return build(CodeConflict, message, nil) }

// ─────────────────────────────────────────────────────────────────────────────
// Inspection
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) {
			if ae.Code == code {
				return true
			}
			err = ae.Cause
			continue
		}
		return false
	}
	return false
}

// notFoundCodes are the codes IsNotFound accepts.
var notFoundCodes = map[ErrorCode]bool{
	CodeNotFound:              true,
	ErrCodeScanJobNotFound:    true,
	ErrCodeProductNotFound:    true,
	ErrCodeReferenceNotFound:  true,
	ErrCodeScanResultNotFound: true,
	ErrCodePlanNotFound:       true,
}

// IsNotFound reports whether any AppError in err's chain carries a not-found
// code.
func IsNotFound(err error) bool {
	var ae *AppError
	for err != nil && errors.As(err, &ae) {
		if notFoundCodes[ae.Code] {
			return true
		}
		err = ae.Cause
	}
	return false
}

// GetCode returns the code of the outermost AppError, CodeOK for nil and
// CodeUnknown when the chain holds no AppError.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

//Personal.AI order the ending
