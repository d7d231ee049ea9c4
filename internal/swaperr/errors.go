// Package swaperr defines the error taxonomy shared across the quote and
// user-operation pipeline. Every error carries a machine-readable reason code
// so the API layer can map it to a specific HTTP status and remediation.
package swaperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for HTTP mapping and retry policy.
type Kind string

const (
	KindValidation      Kind = "validation_error"
	KindUnsupportedPair Kind = "unsupported_pair"
	KindNotFound        Kind = "not_found"
	KindExpired         Kind = "expired"
	KindMissingField    Kind = "missing_field"
	KindChainRpc        Kind = "chain_rpc_error"
	KindEncoding        Kind = "encoding_error"
)

// Error is the concrete error type used throughout the pipeline.
type Error struct {
	Kind    Kind
	Code    string // machine-readable reason code, e.g. "slippage_out_of_range"
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so sentinel checks like errors.Is(err, swaperr.Expired)
// work regardless of code and message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && (t.Code == "" || t.Code == e.Code)
}

// Sentinels for errors.Is checks. Each carries only a Kind.
var (
	Validation      = &Error{Kind: KindValidation}
	UnsupportedPair = &Error{Kind: KindUnsupportedPair}
	NotFound        = &Error{Kind: KindNotFound}
	Expired         = &Error{Kind: KindExpired}
	MissingField    = &Error{Kind: KindMissingField}
	ChainRpc        = &Error{Kind: KindChainRpc}
	Encoding        = &Error{Kind: KindEncoding}
)

func Validationf(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func UnsupportedPairf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnsupportedPair, Code: "unsupported_pair", Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: "quote_not_found", Message: fmt.Sprintf(format, args...)}
}

func Expiredf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindExpired, Code: "quote_expired", Message: fmt.Sprintf(format, args...)}
}

// MissingFieldErr names the first absent required field. The field name is the
// reason code suffix so callers can pinpoint the integration bug.
func MissingFieldErr(field string) *Error {
	return &Error{Kind: KindMissingField, Code: "missing_field_" + field, Message: "required field is absent: " + field}
}

func ChainRpcf(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindChainRpc, Code: "chain_rpc_failed", Message: fmt.Sprintf(format, args...), Err: err}
}

func Encodingf(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindEncoding, Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the reason code from any error, falling back to "internal".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal"
}

// KindOf extracts the Kind from any error; empty for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
