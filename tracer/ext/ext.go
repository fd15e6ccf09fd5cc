// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

// Package ext holds the tag and metric names the tracer core writes or
// reads, grounded on ddtrace/ext's flat constant layout.
package ext

// Standard span tags.
const (
	ServiceName  = "service.name"
	ResourceName = "resource.name"
	SpanType     = "span.type"
	SpanKind     = "span.kind"
	Error        = "error"
	ErrorMsg     = "error.msg"
	ErrorType    = "error.type"
	ErrorStack   = "error.stack"
	Environment  = "env"
)

// SpanKind values.
const (
	SpanKindClient   = "client"
	SpanKindServer   = "server"
	SpanKindProducer = "producer"
	SpanKindConsumer = "consumer"
)

// Sampling priority constants, per spec.md §3.
const (
	PriorityUserReject = -1
	PriorityAutoReject = 0
	PriorityAutoKeep   = 1
	PriorityUserKeep   = 2
)

// Internal tags written by the trace segment and the two samplers.
const (
	TraceID128          = "_dd.p.tid"
	PropagationError    = "_dd.propagation_error"
	DecisionMaker       = "_dd.p.dm"
	SamplingAgentRate   = "_dd.agent_psr"
	SamplingRuleRate    = "_dd.rule_psr"
	SamplingLimiterRate = "_dd.limit_psr"
	Hostname            = "_dd.hostname"
	BaseService         = "_dd.base_service"
	Origin              = "_dd.origin"
	LanguageTag         = "language"

	SpanSamplingMechanism    = "_dd.span_sampling.mechanism"
	SpanSamplingRuleRate     = "_dd.span_sampling.rule_rate"
	SpanSamplingMaxPerSecond = "_dd.span_sampling.max_per_second"
)

// SamplingPriorityMetricKey is the metric key that carries the trace's
// sampling priority on the local root span.
const SamplingPriorityMetricKey = "_sampling_priority_v1"

// SingleSpanSamplingMechanism is the numeric mechanism value recorded when
// the span sampler (C4), rather than the trace sampler, admits a span.
const SingleSpanSamplingMechanism = 8

// Language identifies this tracer to the agent.
const Language = "go"
