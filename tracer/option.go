// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperiontrace/tracer-go/internal/globalconfig"
	"github.com/hyperiontrace/tracer-go/internal/log"
)

// config is the immutable, finalized result of Start's options plus the
// process environment, grounded on ddtrace/tracer/option.go's config
// struct and on internal/config/config.go's env-driven field set, trimmed
// to what spec.md §6 names.
type config struct {
	serviceName string
	serviceType string
	env         string
	version     string
	globalTags  map[string]string

	agentURL string

	enabled        bool
	logStartup     bool
	reportHostname bool

	sampleRate    float64
	hasSampleRate bool
	rateLimit     float64
	traceRules    []SamplingRule
	spanRules     []SamplingRule

	injectStyles     []string
	extractStyles    []string
	injectStylesSet  bool
	extractStylesSet bool

	trace128BitIDs bool
	telemetry      bool

	flushInterval time.Duration
}

// StartOption configures Start. Grounded on the functional-options idiom
// ddtrace/tracer/option.go uses throughout.
type StartOption func(*config)

// WithService sets the default service name. Required unless DD_SERVICE is
// set; finalizeConfig fails with ErrServiceNameRequired otherwise.
func WithService(name string) StartOption {
	return func(c *config) { c.serviceName = name }
}

// WithServiceType sets the default span type (e.g. "web", "db").
func WithServiceType(t string) StartOption {
	return func(c *config) { c.serviceType = t }
}

// WithEnv sets the default env tag.
func WithEnv(env string) StartOption {
	return func(c *config) { c.env = env }
}

// WithServiceVersion sets the default version tag.
func WithServiceVersion(v string) StartOption {
	return func(c *config) { c.version = v }
}

// WithGlobalTag sets a tag applied to every span created by this tracer.
func WithGlobalTag(key, value string) StartOption {
	return func(c *config) {
		if c.globalTags == nil {
			c.globalTags = make(map[string]string)
		}
		c.globalTags[key] = value
	}
}

// WithAgentURL overrides the agent endpoint. Accepts http(s):// and
// unix(+http/https):// schemes per spec.md §6.
func WithAgentURL(url string) StartOption {
	return func(c *config) { c.agentURL = url }
}

// WithSampleRate sets a single catch-all trace sampling rate, used only
// when no explicit DD_TRACE_SAMPLING_RULES / WithSamplingRules is given.
func WithSampleRate(rate float64) StartOption {
	return func(c *config) { c.sampleRate = rate; c.hasSampleRate = true }
}

// WithRateLimit overrides the global trace rate limiter's rate.
func WithRateLimit(perSecond float64) StartOption {
	return func(c *config) { c.rateLimit = perSecond }
}

// WithSamplingRules sets the trace-level sampling rule list directly,
// bypassing DD_TRACE_SAMPLING_RULES.
func WithSamplingRules(rules []SamplingRule) StartOption {
	return func(c *config) { c.traceRules = rules }
}

// WithSpanSamplingRules sets the span-level sampling rule list directly,
// bypassing DD_SPAN_SAMPLING_RULES.
func WithSpanSamplingRules(rules []SamplingRule) StartOption {
	return func(c *config) { c.spanRules = rules }
}

// WithPropagationStyles overrides the inject and extract style lists.
// Valid style names: "datadog", "b3", "tracecontext", "none". Passing an
// empty or nil slice for either is rejected by finalizeConfig rather
// than silently falling back to the default list — use "none" to
// disable a direction explicitly.
func WithPropagationStyles(inject, extract []string) StartOption {
	return func(c *config) {
		c.injectStyles, c.injectStylesSet = inject, true
		c.extractStyles, c.extractStylesSet = extract, true
	}
}

// WithTraceEnabled toggles whether the tracer reports spans at all: when
// false, no collector or flush ticker is created, and finalize still makes
// the sampling decision and tags the root span but sends nothing.
func WithTraceEnabled(enabled bool) StartOption {
	return func(c *config) { c.enabled = enabled }
}

// With128BitTraceIDs enables generating a genuinely 128-bit trace id for
// new traces (rather than leaving the upper 64 bits zero).
func With128BitTraceIDs(enabled bool) StartOption {
	return func(c *config) { c.trace128BitIDs = enabled }
}

// WithFlushInterval overrides how often the collector flushes buffered
// traces to the agent. Must be > 0; the default is 2 seconds.
func WithFlushInterval(d time.Duration) StartOption {
	return func(c *config) { c.flushInterval = d }
}

func boolEnv(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "0", "false", "no":
		return false
	default:
		return true
	}
}

func floatEnv(key string, def float64) (float64, bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, newConfigError(ErrInvalidDouble, "%s: invalid double %q", key, v)
	}
	return f, true, nil
}

// parseTagString parses DD_TAGS's space- or comma-separated "k:v" form,
// per spec.md §6.
func parseTagString(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	sep := " "
	if strings.Contains(s, ",") {
		sep = ","
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(s, sep) {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) != 2 {
			return nil, newConfigError(ErrTagMissingSeparator, "DD_TAGS: missing ':' in %q", pair)
		}
		out[kv[0]] = kv[1]
	}
	return out, nil
}

// resolveAgentURL applies DD_AGENT_HOST / DD_TRACE_AGENT_PORT /
// DD_TRACE_AGENT_URL / WithAgentURL precedence and validates the scheme,
// per spec.md §6's "URLs accept http, https, unix, http+unix, https+unix;
// unix paths must be absolute."
func resolveAgentURL(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv("DD_TRACE_AGENT_URL")
	}
	if explicit == "" {
		host := os.Getenv("DD_AGENT_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("DD_TRACE_AGENT_PORT")
		if port == "" {
			port = "8126"
		}
		explicit = fmt.Sprintf("http://%s:%s", host, port)
	}
	idx := strings.Index(explicit, "://")
	if idx < 0 {
		return "", newConfigError(ErrURLMissingSeparator, "agent URL %q is missing a scheme separator", explicit)
	}
	scheme, rest := explicit[:idx], explicit[idx+3:]
	switch scheme {
	case "http", "https":
		return explicit, nil
	case "unix", "http+unix", "https+unix":
		if !strings.HasPrefix(rest, "/") {
			return "", newConfigError(ErrURLUnixSocketPathNotAbsolute, "unix socket path %q must be absolute", rest)
		}
		return explicit, nil
	default:
		return "", newConfigError(ErrURLUnsupportedScheme, "unsupported agent URL scheme %q", scheme)
	}
}

var validStyleNames = map[string]bool{"datadog": true, "b3": true, "tracecontext": true, "none": true}

// parseStyleList parses a comma-separated propagation style list (DD_
// PROPAGATION_STYLE_INJECT/-EXTRACT or DD_TRACE_PROPAGATION_STYLE), per
// spec.md §4.1/§6. "none" is not required to appear alone: listed on its
// own it disables the direction, and next to other styles buildPropagator
// ignores it.
func parseStyleList(raw string) ([]string, error) {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !validStyleNames[s] {
			return nil, newConfigError(ErrUnknownPropagationStyle, "unknown propagation style %q", s)
		}
		out = append(out, s)
	}
	return out, nil
}

var defaultPropagationStyles = []string{"datadog", "tracecontext"}

// finalizeConfig applies defaults, environment variables, and opts (in
// that priority order, opts winning) and validates the result, returning
// a *ConfigError on any failure. Grounded on ddtrace/tracer/option.go's
// newConfig plus internal/config/config.go's loadConfig for the env
// sourcing shape.
func finalizeConfig(opts ...StartOption) (*config, error) {
	c := &config{
		enabled:        boolEnv("DD_TRACE_ENABLED", true),
		logStartup:     boolEnv("DD_TRACE_STARTUP_LOGS", true),
		trace128BitIDs: boolEnv("DD_TRACE_128_BIT_TRACEID_GENERATION_ENABLED", false),
		telemetry:      boolEnv("DD_INSTRUMENTATION_TELEMETRY_ENABLED", true),
		flushInterval:  2 * time.Second,
		rateLimit:      defaultTraceRateLimit,
	}
	c.serviceName = os.Getenv("DD_SERVICE")
	c.env = os.Getenv("DD_ENV")
	c.version = os.Getenv("DD_VERSION")
	if tags, err := parseTagString(os.Getenv("DD_TAGS")); err != nil {
		return nil, err
	} else {
		c.globalTags = tags
	}
	if rate, ok, err := floatEnv("DD_TRACE_SAMPLE_RATE", 0); err != nil {
		return nil, err
	} else if ok {
		c.sampleRate, c.hasSampleRate = rate, true
	}
	if rate, ok, err := floatEnv("DD_TRACE_RATE_LIMIT", 0); err != nil {
		return nil, err
	} else if ok {
		if rate <= 0 {
			return nil, newConfigError(ErrRateOutOfRange, "DD_TRACE_RATE_LIMIT: %v must be > 0", rate)
		}
		c.rateLimit = rate
	}
	if raw := os.Getenv("DD_TRACE_SAMPLING_RULES"); raw != "" {
		rules, err := parseTraceSamplingRules(raw)
		if err != nil {
			return nil, err.(*ConfigError).WithPrefix("DD_TRACE_SAMPLING_RULES: ")
		}
		c.traceRules = rules
	}
	if err := loadSpanSamplingRulesEnv(c); err != nil {
		return nil, err
	}
	if raw := os.Getenv("DD_TRACE_PROPAGATION_STYLE"); raw != "" {
		styles, err := parseStyleList(raw)
		if err != nil {
			return nil, err
		}
		c.injectStyles, c.injectStylesSet = styles, true
		c.extractStyles, c.extractStylesSet = styles, true
	}
	if raw := os.Getenv("DD_PROPAGATION_STYLE_INJECT"); raw != "" {
		styles, err := parseStyleList(raw)
		if err != nil {
			return nil, err
		}
		c.injectStyles, c.injectStylesSet = styles, true
	}
	if raw := os.Getenv("DD_PROPAGATION_STYLE_EXTRACT"); raw != "" {
		styles, err := parseStyleList(raw)
		if err != nil {
			return nil, err
		}
		c.extractStyles, c.extractStylesSet = styles, true
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.serviceName == "" {
		return nil, newConfigError(ErrServiceNameRequired, "service name is required: set WithService or DD_SERVICE")
	}
	url, err := resolveAgentURL(c.agentURL)
	if err != nil {
		return nil, err
	}
	c.agentURL = url
	if c.flushInterval <= 0 {
		return nil, newConfigError(ErrInvalidFlushInterval, "flush interval must be > 0, got %v", c.flushInterval)
	}

	// DD_TRACE_SAMPLING_RULES wins over DD_TRACE_SAMPLE_RATE; the rate
	// becomes a catch-all rule only when no rules were given, per
	// spec.md §6's documented precedence.
	if len(c.traceRules) == 0 && c.hasSampleRate {
		if c.sampleRate < 0 || c.sampleRate > 1 {
			return nil, newConfigError(ErrRateOutOfRange, "DD_TRACE_SAMPLE_RATE: %v out of range [0,1]", c.sampleRate)
		}
		c.traceRules = []SamplingRule{{SampleRate: c.sampleRate}}
	} else if len(c.traceRules) > 0 && c.hasSampleRate {
		log.Warn("DD_TRACE_SAMPLING_RULES and DD_TRACE_SAMPLE_RATE are both set; DD_TRACE_SAMPLING_RULES takes precedence")
	}

	if c.injectStylesSet && len(c.injectStyles) == 0 {
		return nil, newConfigError(ErrMissingSpanInjectionStyle, `propagation inject style list must not be empty; use "none" to disable injection`)
	}
	if c.extractStylesSet && len(c.extractStyles) == 0 {
		return nil, newConfigError(ErrMissingSpanExtractionStyle, `propagation extract style list must not be empty; use "none" to disable extraction`)
	}
	if len(c.injectStyles) == 0 {
		c.injectStyles = defaultPropagationStyles
	}
	if len(c.extractStyles) == 0 {
		c.extractStyles = defaultPropagationStyles
	}

	if _, err := os.Hostname(); err == nil {
		c.reportHostname = boolEnv("DD_TRACE_REPORT_HOSTNAME", false)
	}

	globalconfig.SetServiceName(c.serviceName)
	return c, nil
}

// loadSpanSamplingRulesEnv implements DD_SPAN_SAMPLING_RULES /
// DD_SPAN_SAMPLING_RULES_FILE precedence: an inline value wins, and the
// file variant is ignored with a logged warning when both are set, per
// spec.md §6.
func loadSpanSamplingRulesEnv(c *config) error {
	inline := os.Getenv("DD_SPAN_SAMPLING_RULES")
	file := os.Getenv("DD_SPAN_SAMPLING_RULES_FILE")
	if inline != "" && file != "" {
		log.Warn("DD_SPAN_SAMPLING_RULES_FILE is set but ignored because DD_SPAN_SAMPLING_RULES is also set")
	}
	raw := inline
	if raw == "" && file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return newConfigError(ErrSpanSamplingRulesFileIO, "DD_SPAN_SAMPLING_RULES_FILE: %v", err)
		}
		raw = string(b)
	}
	if raw == "" {
		return nil
	}
	rules, err := parseSpanSamplingRules(raw)
	if err != nil {
		return err.(*ConfigError).WithPrefix("DD_SPAN_SAMPLING_RULES: ")
	}
	c.spanRules = rules
	return nil
}

// marshalRulesForLog renders rules as JSON for the optional startup log
// line; errors are swallowed since this is diagnostic only.
func marshalRulesForLog(rules []SamplingRule) string {
	b, err := json.Marshal(rules)
	if err != nil {
		return "[]"
	}
	return string(b)
}
