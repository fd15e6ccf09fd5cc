// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"strings"
	"time"

	"github.com/hyperiontrace/tracer-go/tracer/ext"
)

// reservedTagPrefix marks tag keys that are internal bookkeeping. Only the
// segment-level helpers in this package may write such a key; spec.md §3
// calls this out as an invariant.
const reservedTagPrefix = "_dd."

// spanData is the passive record of a single span, grounded on spec.md §3
// and on the field layout of ddtrace/tracer/span.go.
type spanData struct {
	service     string
	serviceType string
	name        string
	resource    string

	traceID  traceID
	spanID   uint64
	parentID uint64 // 0 = no parent

	start    time.Time
	duration time.Duration
	err      bool

	meta    map[string]string
	metrics map[string]float64
}

func newSpanData(service, name, resource string, start time.Time) *spanData {
	return &spanData{
		service:  service,
		name:     name,
		resource: resource,
		start:    start,
		meta:     make(map[string]string),
		metrics:  make(map[string]float64),
	}
}

// setTag is the unguarded, unreserved-key tag setter used by user-facing
// code paths (Span.SetTag). Reserved keys are silently dropped here; only
// setInternalTag (called exclusively from segment-owned code) may write
// them, matching spec.md §3's invariant that "_dd." tags are only ever
// written through documented segment-level paths.
func (d *spanData) setTag(key, value string) {
	if strings.HasPrefix(key, reservedTagPrefix) {
		return
	}
	d.meta[key] = value
}

func (d *spanData) setInternalTag(key, value string) {
	d.meta[key] = value
}

func (d *spanData) setMetric(key string, value float64) {
	d.metrics[key] = value
}

// SpanDefaults is the immutable seed applied to every span created by a
// Tracer before any per-span SpanConfig override, per spec.md §3.
type SpanDefaults struct {
	Service     string
	ServiceType string
	Name        string
	Env         string
	Version     string
	Tags        map[string]string
}

// SpanConfig carries the per-span overrides accepted by CreateSpan /
// CreateChild / StartSpanFromContext.
type SpanConfig struct {
	Service     string
	ServiceType string
	Resource    string
	Tags        map[string]string
	Metrics     map[string]float64
	StartTime   time.Time
	Parent      *SpanContext
}

// SpanStartOption configures a SpanConfig. Grounded on the functional-
// options idiom used throughout the teacher (StartSpanOption).
type SpanStartOption func(*SpanConfig)

// ServiceName overrides the span's service.
func ServiceName(name string) SpanStartOption {
	return func(c *SpanConfig) { c.Service = name }
}

// Resource sets the span's resource name.
func Resource(name string) SpanStartOption {
	return func(c *SpanConfig) { c.Resource = name }
}

// Tag sets a single tag on the started span.
func Tag(key, value string) SpanStartOption {
	return func(c *SpanConfig) {
		if c.Tags == nil {
			c.Tags = make(map[string]string)
		}
		c.Tags[key] = value
	}
}

// Metric sets a single numeric metric on the started span.
func Metric(key string, value float64) SpanStartOption {
	return func(c *SpanConfig) {
		if c.Metrics == nil {
			c.Metrics = make(map[string]float64)
		}
		c.Metrics[key] = value
	}
}

// StartTime overrides the span's start time. Mainly useful in tests.
func StartTime(t time.Time) SpanStartOption {
	return func(c *SpanConfig) { c.StartTime = t }
}

// applySpanConfig seeds data from defaults, then cfg (if non-nil) overrides.
func applySpanConfig(data *spanData, defaults SpanDefaults, cfg *SpanConfig) {
	data.service = defaults.Service
	data.serviceType = defaults.ServiceType
	if defaults.Env != "" {
		data.setTag(ext.Environment, defaults.Env)
	}
	if defaults.Version != "" {
		data.setTag(tagVersion, defaults.Version)
	}
	for k, v := range defaults.Tags {
		data.setTag(k, v)
	}
	if cfg == nil {
		return
	}
	if cfg.Service != "" {
		data.service = cfg.Service
	}
	if cfg.ServiceType != "" {
		data.serviceType = cfg.ServiceType
	}
	if cfg.Resource != "" {
		data.resource = cfg.Resource
	}
	for k, v := range cfg.Tags {
		data.setTag(k, v)
	}
	for k, v := range cfg.Metrics {
		data.setMetric(k, v)
	}
}

// tagVersion is the application-version tag key; it has no ext constant of
// its own because it is only ever written here, from SpanDefaults.
const tagVersion = "version"
