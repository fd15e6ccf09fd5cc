// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"sync"
	"time"

	mutexasserts "github.com/trailofbits/go-mutexasserts"

	"github.com/hyperiontrace/tracer-go/internal/log"
	"github.com/hyperiontrace/tracer-go/internal/samplernames"
	"github.com/hyperiontrace/tracer-go/tracer/ext"
)

// DecisionOrigin records which actor produced a trace's SamplingDecision.
type DecisionOrigin int

const (
	DecisionLocal DecisionOrigin = iota
	DecisionExtracted
	DecisionAgent
)

// SamplingDecision is the (priority, mechanism, origin) triple of spec.md
// §3. Once set it is immutable except through overrideSamplingPriority,
// which always wins.
type SamplingDecision struct {
	Priority  int
	Mechanism samplernames.SamplerName
	Origin    DecisionOrigin
}

// traceSegment is the C6 shared per-trace state, grounded on
// ddtrace/tracer/spancontext.go's trace struct, trimmed to the fields
// spec.md §3/§4.4 names (no baggage, no partial flush, no peer-service
// remapping — none of those are part of this core).
type traceSegment struct {
	tr *Tracer

	mu sync.RWMutex
	// +checklocks:mu
	spans []*spanData // finished spans, in finish order
	// +checklocks:mu
	root *spanData
	// +checklocks:mu
	origin string
	// +checklocks:mu
	tags map[string]string // propagating (_dd.p.*) trace tags
	// +checklocks:mu
	tracestate string // raw inbound W3C tracestate header, for vendor passthrough on re-injection
	// +checklocks:mu
	decision *SamplingDecision
	// +checklocks:mu
	propagationError string
	// +checklocks:mu
	live int
	// +checklocks:mu
	locked bool
}

func newTraceSegment(tr *Tracer, origin string, propagatingTags map[string]string) *traceSegment {
	return &traceSegment{tr: tr, origin: origin, tags: propagatingTags}
}

// registerSpan records a new live span on the segment. root must be set
// exactly once, by the first span registered.
func (t *traceSegment) registerSpan(d *spanData) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil {
		t.root = d
	}
	t.live++
}

// unregisterSpan records d as finished and, once the live count reaches
// zero, runs finalization exactly once. +checklocks discipline follows
// the teacher's finishedOne.
func (t *traceSegment) unregisterSpan(d *spanData, now time.Time) {
	t.mu.Lock()
	t.spans = append(t.spans, d)
	t.live--
	live := t.live
	mutexasserts.AssertRWMutexLocked(&t.mu)
	t.mu.Unlock()

	if live == 0 {
		t.finalize(now)
	}
}

func (t *traceSegment) getOrigin() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.origin
}

func (t *traceSegment) getSamplingPriority() (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.decision == nil {
		return 0, false
	}
	return t.decision.Priority, true
}

// propagatingTagsSnapshot returns a copy of the _dd.p.* trace tags suitable
// for injection.
func (t *traceSegment) propagatingTagsSnapshot() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.tags))
	for k, v := range t.tags {
		out[k] = v
	}
	return out
}

func (t *traceSegment) setPropagatingTag(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tags == nil {
		t.tags = make(map[string]string, 1)
	}
	t.tags[key] = value
}

// setTracestate records the raw inbound W3C tracestate header so a later
// Inject can pass its non-dd vendor members through verbatim.
func (t *traceSegment) setTracestate(state string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracestate = state
}

func (t *traceSegment) getTracestate() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracestate
}

// setPropagationError records the aggregate propagation_error per
// spec.md §3 ("last write wins").
func (t *traceSegment) setPropagationError(kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.propagationError = kind
}

// overrideSamplingPriority implements spec.md §4.4's override_sampling_priority:
// it always wins over a prior decision and is attributed to MANUAL/LOCAL.
func (t *traceSegment) overrideSamplingPriority(p int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decision = &SamplingDecision{Priority: p, Mechanism: samplernames.Manual, Origin: DecisionLocal}
	t.locked = true
	t.setDecisionMakerTagLocked()
}

// setExtractedSamplingPriority seeds the segment's decision from a
// remotely extracted priority, per spec.md §4.1. Unlike
// overrideSamplingPriority it never overwrites a decision that already
// exists (extraction only ever runs once, before any span finishes, so
// in practice this always sets the initial decision).
func (t *traceSegment) setExtractedSamplingPriority(p int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.decision != nil {
		return
	}
	t.decision = &SamplingDecision{Priority: p, Mechanism: samplernames.Unknown, Origin: DecisionExtracted}
}

// +checklocks:t.mu
func (t *traceSegment) setDecisionMakerTagLocked() {
	mutexasserts.AssertRWMutexLocked(&t.mu)
	if t.decision == nil {
		return
	}
	if t.decision.Priority > 0 {
		if t.tags == nil {
			t.tags = make(map[string]string, 1)
		}
		t.tags[ext.DecisionMaker] = t.decision.Mechanism.String()
	} else {
		delete(t.tags, ext.DecisionMaker)
	}
}

// makeSamplingDecision runs the tracer's TraceSampler against the root
// span if no decision exists yet, per spec.md §4.4 step 1 / the "first
// injection triggers a decision" rule in §4.4's inject description.
func (t *traceSegment) makeSamplingDecision(now time.Time) {
	t.mu.Lock()
	if t.decision != nil {
		t.mu.Unlock()
		return
	}
	root := t.root
	t.mu.Unlock()
	if root == nil || t.tr == nil {
		return
	}
	priority, mechanism, _ := t.tr.traceSampler.decide(root, now)
	t.mu.Lock()
	t.decision = &SamplingDecision{Priority: priority, Mechanism: mechanism, Origin: DecisionLocal}
	t.setDecisionMakerTagLocked()
	t.mu.Unlock()
}

// finalize implements spec.md §4.4's single-run finalization, called
// exactly once when the live span count reaches zero.
func (t *traceSegment) finalize(now time.Time) {
	t.mu.Lock()
	root := t.root
	decision := t.decision
	propErr := t.propagationError
	spans := t.spans
	t.mu.Unlock()

	if root == nil {
		return
	}

	if decision == nil {
		priority, mechanism, _ := t.tr.traceSampler.decide(root, now)
		decision = &SamplingDecision{Priority: priority, Mechanism: mechanism, Origin: DecisionLocal}
		t.mu.Lock()
		t.decision = decision
		t.setDecisionMakerTagLocked()
		t.mu.Unlock()
	}

	root.setMetric(ext.SamplingPriorityMetricKey, float64(decision.Priority))
	for k, v := range t.propagatingTagsSnapshot() {
		root.setInternalTag(k, v)
	}
	if origin := t.getOrigin(); origin != "" {
		root.setInternalTag(ext.Origin, origin)
	}
	if t.tr != nil && t.tr.config.reportHostname {
		if h, err := t.tr.hostname(); err == nil && h != "" {
			root.setInternalTag(ext.Hostname, h)
		}
	}
	root.setInternalTag(ext.LanguageTag, ext.Language)

	if propErr != "" {
		root.setInternalTag(ext.PropagationError, propErr)
	}

	keep := decision.Priority > 0
	finalSpans := spans
	if !keep && t.tr != nil && t.tr.spanSampler != nil {
		finalSpans = make([]*spanData, 0, len(spans))
		for _, s := range spans {
			if s == root || t.tr.spanSampler.apply(s, now) {
				finalSpans = append(finalSpans, s)
			}
		}
	}

	if t.tr == nil || !t.tr.config.enabled {
		return
	}
	if err := t.tr.collector.send(decision.Priority, finalSpans); err != nil {
		log.Error("collector.send", "failed to send trace: %s", err)
	}
}
