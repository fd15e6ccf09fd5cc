// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hyperiontrace/tracer-go/tracer/ext"
)

func TestSpanSetTagIgnoresReservedKeys(t *testing.T) {
	d := newSpanData("checkout", "http.request", "/cart", time.Now())
	s := newSpan(d, &SpanContext{}, nil)
	s.SetTag("_dd.internal", "nope")
	s.SetTag("http.method", "GET")
	assert.NotContains(t, d.meta, "_dd.internal")
	assert.Equal(t, "GET", d.meta["http.method"])
}

func TestSpanSetErrorSetsTagTriple(t *testing.T) {
	d := newSpanData("checkout", "http.request", "/cart", time.Now())
	s := newSpan(d, &SpanContext{}, nil)
	s.SetError(errors.New("boom"))
	assert.Equal(t, "true", d.meta[ext.Error])
	assert.Equal(t, "boom", d.meta[ext.ErrorMsg])
	assert.NotEmpty(t, d.meta[ext.ErrorType])
}

func TestSpanSetErrorNilIsNoop(t *testing.T) {
	d := newSpanData("checkout", "http.request", "/cart", time.Now())
	s := newSpan(d, &SpanContext{}, nil)
	s.SetError(nil)
	assert.NotContains(t, d.meta, ext.Error)
}

func TestSpanFinishIsIdempotent(t *testing.T) {
	coll := &recordingCollector{}
	tr := newTestTracer(t, coll)
	seg := newTraceSegment(tr, "", nil)
	d := newSpanData("checkout", "http.request", "/cart", time.Now())
	seg.registerSpan(d)
	s := newSpan(d, &SpanContext{segment: seg}, nil)

	s.Finish()
	s.Finish()
	assert.Equal(t, 1, coll.calls, "finishing twice must not finalize twice")
}

func TestSpanFinishRecordsNonNegativeDuration(t *testing.T) {
	d := newSpanData("checkout", "http.request", "/cart", time.Now().Add(time.Hour))
	s := newSpan(d, &SpanContext{}, nil)
	s.Finish()
	assert.GreaterOrEqual(t, d.duration, time.Duration(0))
}

func TestSpanSetSamplingPriorityOverridesSegment(t *testing.T) {
	seg := newTraceSegment(nil, "", nil)
	d := newSpanData("checkout", "http.request", "/cart", time.Now())
	s := newSpan(d, &SpanContext{segment: seg}, nil)
	s.SetSamplingPriority(ext.PriorityUserKeep)

	p, ok := seg.getSamplingPriority()
	assert.True(t, ok)
	assert.Equal(t, ext.PriorityUserKeep, p)
}
