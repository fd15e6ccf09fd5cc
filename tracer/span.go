// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"fmt"
	"sync"

	"github.com/hyperiontrace/tracer-go/tracer/ext"
)

// Span is the user-facing handle of C8: it exclusively owns its own
// end-of-life signalling and shares (borrows) its TraceSegment with every
// other span in the same local trace. Grounded on ddtrace/tracer/span.go's
// RWMutex-guarded field layout, trimmed to spec.md §3's fields.
type Span struct {
	mu sync.RWMutex
	// +checklocks:mu
	data *spanData
	// +checklocks:mu
	finished bool

	context *SpanContext
	clock   Clock
}

// Context returns the propagable identity of this span.
func (s *Span) Context() *SpanContext { return s.context }

// SetTag sets a user tag on the span. Keys beginning with "_dd." are
// reserved and silently ignored, per spec.md §3's invariant.
func (s *Span) SetTag(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.setTag(key, value)
}

// SetMetric sets a user numeric metric on the span.
func (s *Span) SetMetric(key string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.setMetric(key, value)
}

// SetError marks the span as errored and records err's message, matching
// the ext.Error/ErrorMsg/ErrorType tag triple the teacher writes.
func (s *Span) SetError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.err = true
	s.data.setTag(ext.Error, "true")
	s.data.setTag(ext.ErrorMsg, err.Error())
	s.data.setTag(ext.ErrorType, fmt.Sprintf("%T", err))
}

// SetOperationName renames the span's operation.
func (s *Span) SetOperationName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.name = name
}

// SetSamplingPriority overrides the trace's sampling decision, per
// spec.md §4.4's override_sampling_priority.
func (s *Span) SetSamplingPriority(priority int) {
	if s.context == nil || s.context.segment == nil {
		return
	}
	s.context.segment.overrideSamplingPriority(priority)
}

// Finish records the span's duration and reports it to its segment,
// triggering finalization when it was the last live span. Grounded on
// ddtrace/tracer/span.go's Finish / spancontext.go's SpanContext.finish.
func (s *Span) Finish() {
	now := s.clock.Now()
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.data.duration = now.Sub(s.data.start)
	if s.data.duration < 0 {
		s.data.duration = 0
	}
	d := s.data
	s.mu.Unlock()

	if s.context != nil && s.context.segment != nil {
		s.context.segment.unregisterSpan(d, now)
	}
}

func newSpan(d *spanData, ctx *SpanContext, clock Clock) *Span {
	if clock == nil {
		clock = defaultClock
	}
	return &Span{data: d, context: ctx, clock: clock}
}
