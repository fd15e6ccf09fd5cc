// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"strconv"
	"strings"

	"github.com/hyperiontrace/tracer-go/internal/log"
)

// extractedContext is the result of a single propagator's Extract call:
// everything spec.md §4.1 says an inbound header set can carry, before a
// Tracer turns it into a local TraceSegment.
type extractedContext struct {
	traceID           traceID
	spanID            uint64
	origin            string
	priority          *int
	propagatingTags   map[string]string
	propagationError  string
	tracestate        string // W3C-only: preserved verbatim for re-injection
}

// Propagator injects a local SpanContext into, or extracts one from, a
// text-map carrier using one specific wire style. Grounded 1:1 on
// ddtrace/tracer/textmap.go's Propagator interface.
type Propagator interface {
	Inject(ctx *SpanContext, writer TextMapWriter) error
	Extract(reader TextMapReader) (*extractedContext, error)
}

// chainedPropagator runs every injector on Inject, and the first
// non-absent extractor on Extract, grounded on textmap.go's
// chainedPropagator.
type chainedPropagator struct {
	injectors  []Propagator
	extractors []Propagator
}

func (c *chainedPropagator) Inject(ctx *SpanContext, writer TextMapWriter) error {
	for _, p := range c.injectors {
		if err := p.Inject(ctx, writer); err != nil {
			return err
		}
	}
	return nil
}

// Extract returns the first extractor's result that isn't "absent", per
// spec.md §4.1: absence continues iteration; any other outcome (context
// or genuine error) stops it.
func (c *chainedPropagator) Extract(reader TextMapReader) (*extractedContext, error) {
	for _, p := range c.extractors {
		ctx, err := p.Extract(reader)
		if err == nil {
			return ctx, nil
		}
		if isAbsent(err) {
			continue
		}
		return nil, err
	}
	return nil, errAbsent
}

// nonePropagator always reports absence; selected when a style list is
// exactly "none".
type nonePropagator struct{}

func (nonePropagator) Inject(*SpanContext, TextMapWriter) error     { return nil }
func (nonePropagator) Extract(TextMapReader) (*extractedContext, error) { return nil, errAbsent }

const (
	datadogTraceIDHeader     = "x-datadog-trace-id"
	datadogParentIDHeader    = "x-datadog-parent-id"
	datadogPriorityHeader    = "x-datadog-sampling-priority"
	datadogOriginHeader      = "x-datadog-origin"
	datadogTraceTagsHeader   = "x-datadog-tags"
)

// datadogPropagator implements the Datadog propagation style of spec.md
// §4.1/§6, grounded on textmap.go's propagator.
type datadogPropagator struct {
	maxTagsHeaderLen int
}

func (p *datadogPropagator) Inject(ctx *SpanContext, writer TextMapWriter) error {
	if ctx == nil || ctx.traceID.Empty() || ctx.spanID == 0 {
		return newExtractError(ErrMissingParentSpanID, "invalid span context")
	}
	writer.Set(datadogTraceIDHeader, strconv.FormatUint(ctx.traceID.Lower(), 10))
	writer.Set(datadogParentIDHeader, strconv.FormatUint(ctx.spanID, 10))
	if p2, ok := ctx.SamplingPriority(); ok {
		writer.Set(datadogPriorityHeader, strconv.Itoa(p2))
	}
	if origin := ctx.Origin(); origin != "" {
		writer.Set(datadogOriginHeader, origin)
	}
	if ctx.segment == nil {
		return nil
	}
	maxLen := p.maxTagsHeaderLen
	if maxLen <= 0 {
		maxLen = defaultMaxTagsHeaderLen
	}
	tags := ctx.segment.propagatingTagsSnapshot()
	s, err := marshalPropagatingTags(tags, maxLen)
	if err != nil {
		log.Warn("won't propagate %s: %v", datadogTraceTagsHeader, err)
		ctx.segment.setPropagationError("inject_max_size")
		return nil
	}
	if s != "" {
		writer.Set(datadogTraceTagsHeader, s)
	}
	return nil
}

func (p *datadogPropagator) Extract(reader TextMapReader) (*extractedContext, error) {
	var ctx extractedContext
	var sawTraceID, sawParentID bool
	err := reader.ForeachKey(func(k, v string) error {
		switch strings.ToLower(k) {
		case datadogTraceIDHeader:
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return newExtractError(ErrMalformedTraceID, "malformed "+datadogTraceIDHeader)
			}
			ctx.traceID.SetLower(id)
			sawTraceID = true
		case datadogParentIDHeader:
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return newExtractError(ErrMalformedParentID, "malformed "+datadogParentIDHeader)
			}
			ctx.spanID = id
			sawParentID = true
		case datadogPriorityHeader:
			pr, err := strconv.Atoi(v)
			if err != nil {
				return newExtractError(ErrMalformedSamplingPriority, "malformed "+datadogPriorityHeader)
			}
			ctx.priority = &pr
		case datadogOriginHeader:
			ctx.origin = v
		case datadogTraceTagsHeader:
			if len(v) > propagationExtractMaxSize {
				ctx.propagationError = "extract_max_size"
				ctx.propagatingTags = map[string]string{}
				return nil
			}
			tags, err := parsePropagatableTraceTags(v)
			if err != nil {
				ctx.propagationError = "decoding_error"
				ctx.propagatingTags = map[string]string{}
				return nil
			}
			ctx.propagatingTags = tags
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !sawTraceID {
		return nil, errAbsent
	}
	if !sawParentID && ctx.origin != "synthetics" {
		return nil, newExtractError(ErrMissingParentSpanID, "missing "+datadogParentIDHeader)
	}
	return &ctx, nil
}
