// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import "fmt"

// ConfigErrorCode enumerates the construction-time failures spec.md §4.7
// names. finalizeConfig never panics; every invalid input surfaces as one
// of these.
type ConfigErrorCode int

const (
	ErrServiceNameRequired ConfigErrorCode = iota + 1
	ErrInvalidFlushInterval
	ErrURLMissingSeparator
	ErrURLUnsupportedScheme
	ErrURLUnixSocketPathNotAbsolute
	ErrInvalidDouble
	ErrRateOutOfRange
	ErrMaxPerSecondOutOfRange
	ErrTraceSamplingRulesInvalidJSON
	ErrTraceSamplingRulesWrongType
	ErrTraceSamplingRulesSampleRateWrongType
	ErrTraceSamplingRulesUnknownProperty
	ErrRuleWrongType
	ErrRulePropertyWrongType
	ErrRuleTagWrongType
	ErrSpanSamplingRulesInvalidJSON
	ErrSpanSamplingRulesWrongType
	ErrSpanSamplingRulesSampleRateWrongType
	ErrSpanSamplingRulesUnknownProperty
	ErrSpanSamplingRulesFileIO
	ErrTagMissingSeparator
	ErrUnknownPropagationStyle
	ErrMissingSpanInjectionStyle
	ErrMissingSpanExtractionStyle
)

// ConfigError is returned from finalizeConfig / Start when the supplied
// options or environment are invalid. Code is stable across versions;
// Message is for humans only.
type ConfigError struct {
	Code    ConfigErrorCode
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

func newConfigError(code ConfigErrorCode, format string, a ...interface{}) *ConfigError {
	return &ConfigError{Code: code, Message: fmt.Sprintf(format, a...)}
}

// WithPrefix returns a new *ConfigError carrying the same Code but with
// prefix prepended to Message, e.g. to attribute a parse failure to the
// environment variable that produced it. Grounded on original_source's
// Error::with_prefix: composition preserves the code, which is what lets
// callers still programmatically recognize the failure after it has been
// annotated by several layers of parsing.
func (e *ConfigError) WithPrefix(prefix string) *ConfigError {
	return &ConfigError{Code: e.Code, Message: prefix + e.Message}
}

// ExtractErrorKind enumerates the ways context extraction (C5) can fail,
// per spec.md §4.1.
type ExtractErrorKind int

const (
	ErrMissingParentSpanID ExtractErrorKind = iota + 1
	ErrMalformedTraceID
	ErrMalformedParentID
	ErrMalformedSamplingPriority
)

// ExtractError is returned by Propagator.Extract and Tracer.ExtractSpan.
type ExtractError struct {
	Kind ExtractErrorKind
	msg  string
}

func (e *ExtractError) Error() string { return e.msg }

func newExtractError(kind ExtractErrorKind, msg string) *ExtractError {
	return &ExtractError{Kind: kind, msg: msg}
}

// errAbsent is a sentinel (not an *ExtractError) meaning "this style found
// no trace-id header at all" — per spec.md §4.1, absence continues
// iteration over the style list rather than terminating it.
var errAbsent = fmt.Errorf("no span context found")

func isAbsent(err error) bool { return err == errAbsent }
