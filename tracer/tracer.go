// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"sync"

	"github.com/hyperiontrace/tracer-go/internal/globalconfig"
	"github.com/hyperiontrace/tracer-go/internal/hostname"
	"github.com/hyperiontrace/tracer-go/internal/log"
	randpkg "github.com/hyperiontrace/tracer-go/internal/rand"
	"github.com/hyperiontrace/tracer-go/tracer/ext"
)

// collector is the narrow C9 collaborator a Tracer sends finalized trace
// chunks to. agentCollector (collector.go) is the production
// implementation; tests substitute a recording fake.
type collector interface {
	send(priority int, spans []*spanData) error
	stop()
}

// Tracer is C7: the per-process factory that owns configuration, the two
// samplers, the propagator chain, and the collector. Grounded on
// ddtrace/tracer/tracer.go's tracer struct, trimmed to spec.md §3/§7 (no
// global singleton — every Tracer is created explicitly and threaded by
// the caller, per spec.md §9).
type Tracer struct {
	config       *config
	traceSampler *traceSampler
	spanSampler  *spanSampler
	collector    collector
	clock        Clock
	propagator   *chainedPropagator

	defaults SpanDefaults

	hostnameMu     sync.Mutex
	hostnameValue  string
	hostnameErr    error
	hostnameLooked bool
}

// Start finalizes opts (and the process environment) into a config and
// returns a ready-to-use Tracer. Grounded on ddtrace/tracer.Start, with no
// global registration: the returned *Tracer is the only handle, matching
// spec.md §9's "avoid singletons" note.
func Start(opts ...StartOption) (*Tracer, error) {
	c, err := finalizeConfig(opts...)
	if err != nil {
		return nil, err
	}
	return newTracer(c)
}

func newTracer(c *config) (*Tracer, error) {
	ts, err := newTraceSampler(c.traceRules, c.rateLimit)
	if err != nil {
		return nil, err
	}
	ss, err := newSpanSampler(c.spanRules)
	if err != nil {
		return nil, err
	}

	var coll collector
	if c.enabled {
		coll = newAgentCollector(c, ts)
	} else {
		coll = noopCollector{}
	}

	tr := &Tracer{
		config:       c,
		traceSampler: ts,
		spanSampler:  ss,
		collector:    coll,
		clock:        defaultClock,
		propagator:   buildPropagator(c),
		defaults: SpanDefaults{
			Service:     c.serviceName,
			ServiceType: c.serviceType,
			Env:         c.env,
			Version:     c.version,
			Tags:        c.globalTags,
		},
	}
	if c.logStartup {
		log.Debug("tracer started: service=%s agent=%s rate_limit=%v sampling_rules=%s",
			globalconfig.ServiceName(), c.agentURL, c.rateLimit, marshalRulesForLog(c.traceRules))
	}
	return tr, nil
}

func buildPropagator(c *config) *chainedPropagator {
	mk := func(names []string) []Propagator {
		if len(names) == 1 && names[0] == "none" {
			return []Propagator{nonePropagator{}}
		}
		out := make([]Propagator, 0, len(names))
		for _, name := range names {
			switch name {
			case "datadog":
				out = append(out, &datadogPropagator{maxTagsHeaderLen: defaultMaxTagsHeaderLen})
			case "b3":
				out = append(out, b3Propagator{})
			case "tracecontext":
				out = append(out, traceContextPropagator{})
			}
		}
		return out
	}
	return &chainedPropagator{
		injectors:  mk(c.injectStyles),
		extractors: mk(c.extractStyles),
	}
}

func (t *Tracer) hostname() (string, error) {
	t.hostnameMu.Lock()
	defer t.hostnameMu.Unlock()
	if !t.hostnameLooked {
		t.hostnameValue, t.hostnameErr = hostname.Get()
		t.hostnameLooked = true
	}
	return t.hostnameValue, t.hostnameErr
}

// CreateSpan starts a new root span (no parent), per spec.md §4.4's
// create_span.
func (t *Tracer) CreateSpan(name string, opts ...SpanStartOption) *Span {
	return t.startSpan(name, nil, opts)
}

// CreateChild starts a span as a child of parent's trace, sharing its
// TraceSegment. If parent is nil, this behaves like CreateSpan.
func (t *Tracer) CreateChild(parent *Span, name string, opts ...SpanStartOption) *Span {
	var pctx *SpanContext
	if parent != nil {
		pctx = parent.Context()
	}
	return t.startSpan(name, pctx, opts)
}

func (t *Tracer) startSpan(name string, parent *SpanContext, opts []SpanStartOption) *Span {
	cfg := &SpanConfig{Parent: parent}
	for _, opt := range opts {
		opt(cfg)
	}
	start := t.clock.Now()
	if !cfg.StartTime.IsZero() {
		start = cfg.StartTime
	}

	d := newSpanData(t.defaults.Service, name, name, start)
	applySpanConfig(d, t.defaults, cfg)

	var segment *traceSegment
	if cfg.Parent != nil && cfg.Parent.segment != nil {
		segment = cfg.Parent.segment
		d.traceID = cfg.Parent.traceID
		d.parentID = cfg.Parent.spanID
	} else {
		segment = newTraceSegment(t, "", nil)
		d.traceID = t.newTraceID()
		if d.traceID.HasUpper() {
			segment.setPropagatingTag(ext.TraceID128, d.traceID.UpperHex())
		}
	}
	d.spanID = randpkg.Uint64()

	segment.registerSpan(d)
	ctx := &SpanContext{traceID: d.traceID, spanID: d.spanID, segment: segment}
	return newSpan(d, ctx, t.clock)
}

func (t *Tracer) newTraceID() traceID {
	id := traceIDFromLower(randpkg.Uint64())
	if t.config.trace128BitIDs {
		id.SetUpper(randpkg.Uint64())
	}
	return id
}

// ExtractSpan runs the configured extraction chain over reader and, on
// success, returns the extracted identity as a SpanContext backed by a
// freshly seeded TraceSegment (origin, propagating trace tags, and
// sampling priority already applied), per spec.md §4.4's extract_span.
// Pass the result to StartSpanFromContext to materialize a local root
// span parented to it.
func (t *Tracer) ExtractSpan(reader TextMapReader) (*SpanContext, error) {
	ectx, err := t.propagator.Extract(reader)
	if err != nil {
		if isAbsent(err) {
			return nil, newExtractError(ErrMissingParentSpanID, "no trace context found")
		}
		return nil, err
	}

	segment := newTraceSegment(t, ectx.origin, ectx.propagatingTags)
	if ectx.tracestate != "" {
		segment.setTracestate(ectx.tracestate)
	}
	if ectx.propagationError != "" {
		segment.setPropagationError(ectx.propagationError)
	}
	if ectx.priority != nil {
		segment.setExtractedSamplingPriority(*ectx.priority)
	}
	return &SpanContext{traceID: ectx.traceID, spanID: ectx.spanID, segment: segment}, nil
}

// StartSpanFromContext creates a local root span as a child of ctx (which
// normally comes from ExtractSpan), allocating a new span id and
// recording ctx's span id as parent_id, per spec.md §4.4's extract_span
// "allocates a new span_id for the local root" behavior.
func (t *Tracer) StartSpanFromContext(ctx *SpanContext, name string, opts ...SpanStartOption) (*Span, error) {
	if ctx == nil {
		return nil, newExtractError(ErrMissingParentSpanID, "nil span context")
	}
	return t.startSpan(name, ctx, opts), nil
}

// Inject writes ctx onto writer using the configured injection styles.
// The first injection on a trace triggers its sampling decision, per
// spec.md §4.4.
func (t *Tracer) Inject(ctx *SpanContext, writer TextMapWriter) error {
	if ctx == nil {
		return newExtractError(ErrMissingParentSpanID, "nil span context")
	}
	if ctx.segment != nil {
		ctx.segment.makeSamplingDecision(t.clock.Now())
	}
	return t.propagator.Inject(ctx, writer)
}

// Stop flushes any buffered traces and releases the collector's
// background resources. Safe to call once; grounded on
// ddtrace/tracer/tracer.go's Stop.
func (t *Tracer) Stop() {
	t.collector.stop()
	log.Flush()
}

// noopCollector discards every trace, used when DD_TRACE_ENABLED=false.
type noopCollector struct{}

func (noopCollector) send(int, []*spanData) error { return nil }
func (noopCollector) stop()                       {}
