// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceContextPropagatorInjectAndExtractRoundTrip(t *testing.T) {
	var p traceContextPropagator
	seg := testSegmentWithDecision(1)
	seg.origin = "synthetics"
	var tid traceID
	tid.SetUpper(42)
	tid.SetLower(123)
	ctx := &SpanContext{traceID: tid, spanID: 456, segment: seg}

	carrier := TextMapCarrier{}
	assert.NoError(t, p.Inject(ctx, carrier))
	assert.Contains(t, carrier[traceparentHeader], "-01")
	assert.Contains(t, carrier[tracestateHeader], "dd=s:1")
	assert.Contains(t, carrier[tracestateHeader], "o:synthetics")

	extracted, err := p.Extract(carrier)
	assert.NoError(t, err)
	assert.Equal(t, uint64(123), extracted.traceID.Lower())
	assert.Equal(t, uint64(42), extracted.traceID.Upper())
	assert.Equal(t, uint64(456), extracted.spanID)
	assert.Equal(t, "synthetics", extracted.origin)
	assert.NotNil(t, extracted.priority)
	assert.Equal(t, 1, *extracted.priority)
}

func TestTraceContextPropagatorExtractAbsentWithoutTraceparent(t *testing.T) {
	var p traceContextPropagator
	_, err := p.Extract(TextMapCarrier{})
	assert.True(t, isAbsent(err))
}

func TestTraceContextPropagatorExtractMalformedTraceparent(t *testing.T) {
	var p traceContextPropagator
	carrier := TextMapCarrier{traceparentHeader: "garbage"}
	_, err := p.Extract(carrier)
	assert.Error(t, err)
	assert.Equal(t, ErrMalformedTraceID, err.(*ExtractError).Kind)
}

func TestTraceContextPropagatorExtractAllZeroTraceIDIsAbsent(t *testing.T) {
	var p traceContextPropagator
	carrier := TextMapCarrier{traceparentHeader: "00-00000000000000000000000000000000-0000000000000000-00"}
	_, err := p.Extract(carrier)
	assert.True(t, isAbsent(err))
}

func TestTraceContextPropagatorPreservesForeignTracestateMembers(t *testing.T) {
	var p traceContextPropagator
	carrier := TextMapCarrier{
		traceparentHeader: "00-0000000000000000000000000000007b-00000000000001c8-01",
		tracestateHeader:  "dd=s:1,congo=t61rcWkgMzE",
	}
	extracted, err := p.Extract(carrier)
	assert.NoError(t, err)
	assert.Equal(t, "dd=s:1,congo=t61rcWkgMzE", extracted.tracestate)

	seg := testSegmentWithDecision(1)
	ctx := &SpanContext{traceID: extracted.traceID, spanID: extracted.spanID, segment: seg}
	seg.setTracestate(extracted.tracestate)
	out := TextMapCarrier{}
	assert.NoError(t, p.Inject(ctx, out))
	assert.Contains(t, out[tracestateHeader], "congo=t61rcWkgMzE")
}
