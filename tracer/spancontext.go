// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

// SpanContext is the propagable, cross-process identity of a span: the
// trace it belongs to, the span id a child should record as its parent,
// and a reference to the local TraceSegment (for an extracted context, the
// freshly seeded segment its local root will join). Grounded on ddtrace/tracer/spancontext.go's
// SpanContext, trimmed to the fields spec.md §3/§4.1 actually need
// (no baggage, no span links — out of this core's scope).
type SpanContext struct {
	traceID traceID
	spanID  uint64
	segment *traceSegment
}

// TraceIDLower returns the 64-bit trace id carried on the wire.
func (c *SpanContext) TraceIDLower() uint64 {
	if c == nil {
		return 0
	}
	return c.traceID.Lower()
}

// TraceIDUpper returns the high 64 bits of a 128-bit trace id, or 0 when
// the trace is only 64-bit.
func (c *SpanContext) TraceIDUpper() uint64 {
	if c == nil {
		return 0
	}
	return c.traceID.Upper()
}

// SpanID returns the span id a child of this context should record as its
// parent id.
func (c *SpanContext) SpanID() uint64 {
	if c == nil {
		return 0
	}
	return c.spanID
}

// Origin returns the propagated origin tag (e.g. "synthetics"), or "" when
// none was extracted.
func (c *SpanContext) Origin() string {
	if c == nil || c.segment == nil {
		return ""
	}
	return c.segment.getOrigin()
}

// SamplingPriority returns the trace's current sampling priority, if one
// has been decided yet.
func (c *SpanContext) SamplingPriority() (int, bool) {
	if c == nil || c.segment == nil {
		return 0, false
	}
	return c.segment.getSamplingPriority()
}
