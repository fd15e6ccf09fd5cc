// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// clearTracerEnv removes every DD_* variable this package reads so tests
// don't leak into or depend on the process environment.
func clearTracerEnv(t *testing.T) {
	vars := []string{
		"DD_SERVICE", "DD_ENV", "DD_VERSION", "DD_TAGS",
		"DD_TRACE_ENABLED", "DD_TRACE_STARTUP_LOGS",
		"DD_TRACE_128_BIT_TRACEID_GENERATION_ENABLED",
		"DD_INSTRUMENTATION_TELEMETRY_ENABLED",
		"DD_TRACE_SAMPLE_RATE", "DD_TRACE_RATE_LIMIT",
		"DD_TRACE_SAMPLING_RULES", "DD_SPAN_SAMPLING_RULES",
		"DD_SPAN_SAMPLING_RULES_FILE", "DD_TRACE_PROPAGATION_STYLE",
		"DD_PROPAGATION_STYLE_INJECT", "DD_PROPAGATION_STYLE_EXTRACT",
		"DD_AGENT_HOST", "DD_TRACE_AGENT_PORT", "DD_TRACE_AGENT_URL",
		"DD_TRACE_REPORT_HOSTNAME",
	}
	for _, v := range vars {
		orig, had := os.LookupEnv(v)
		os.Unsetenv(v)
		t.Cleanup(func() {
			if had {
				os.Setenv(v, orig)
			}
		})
	}
}

func TestFinalizeConfigRequiresServiceName(t *testing.T) {
	clearTracerEnv(t)
	_, err := finalizeConfig()
	assert.Error(t, err)
	assert.Equal(t, ErrServiceNameRequired, err.(*ConfigError).Code)
}

func TestFinalizeConfigAppliesDefaults(t *testing.T) {
	clearTracerEnv(t)
	c, err := finalizeConfig(WithService("checkout"))
	assert.NoError(t, err)
	assert.Equal(t, "checkout", c.serviceName)
	assert.Equal(t, "http://localhost:8126", c.agentURL)
	assert.True(t, c.enabled)
	assert.Equal(t, defaultPropagationStyles, c.injectStyles)
	assert.Equal(t, defaultPropagationStyles, c.extractStyles)
	assert.Equal(t, 200.0, c.rateLimit)
}

func TestFinalizeConfigOptionsOverrideEnv(t *testing.T) {
	clearTracerEnv(t)
	os.Setenv("DD_SERVICE", "from-env")
	c, err := finalizeConfig(WithService("from-opt"))
	assert.NoError(t, err)
	assert.Equal(t, "from-opt", c.serviceName)
}

func TestFinalizeConfigSampleRateBecomesCatchAllRule(t *testing.T) {
	clearTracerEnv(t)
	c, err := finalizeConfig(WithService("checkout"), WithSampleRate(0.25))
	assert.NoError(t, err)
	assert.Len(t, c.traceRules, 1)
	assert.Equal(t, 0.25, c.traceRules[0].SampleRate)
}

func TestFinalizeConfigExplicitRulesWinOverSampleRate(t *testing.T) {
	clearTracerEnv(t)
	rules := []SamplingRule{{Service: "checkout", SampleRate: 1}}
	c, err := finalizeConfig(WithService("checkout"), WithSampleRate(0.25), WithSamplingRules(rules))
	assert.NoError(t, err)
	assert.Equal(t, rules, c.traceRules)
}

func TestFinalizeConfigInvalidSampleRateOutOfRange(t *testing.T) {
	clearTracerEnv(t)
	_, err := finalizeConfig(WithService("checkout"), WithSampleRate(2))
	assert.Error(t, err)
	assert.Equal(t, ErrRateOutOfRange, err.(*ConfigError).Code)
}

func TestFinalizeConfigInvalidFlushInterval(t *testing.T) {
	clearTracerEnv(t)
	_, err := finalizeConfig(WithService("checkout"), WithFlushInterval(0))
	assert.Error(t, err)
	assert.Equal(t, ErrInvalidFlushInterval, err.(*ConfigError).Code)
}

func TestFinalizeConfigEmptyInjectStyleListIsRejected(t *testing.T) {
	clearTracerEnv(t)
	_, err := finalizeConfig(WithService("checkout"), WithPropagationStyles([]string{}, []string{"datadog"}))
	assert.Error(t, err)
	assert.Equal(t, ErrMissingSpanInjectionStyle, err.(*ConfigError).Code)
}

func TestFinalizeConfigAgentURLFromHostAndPort(t *testing.T) {
	clearTracerEnv(t)
	os.Setenv("DD_AGENT_HOST", "tracer-agent")
	os.Setenv("DD_TRACE_AGENT_PORT", "9999")
	c, err := finalizeConfig(WithService("checkout"))
	assert.NoError(t, err)
	assert.Equal(t, "http://tracer-agent:9999", c.agentURL)
}

func TestResolveAgentURLUnsupportedScheme(t *testing.T) {
	_, err := resolveAgentURL("ftp://example.com")
	assert.Error(t, err)
	assert.Equal(t, ErrURLUnsupportedScheme, err.(*ConfigError).Code)
}

func TestResolveAgentURLUnixSocketMustBeAbsolute(t *testing.T) {
	_, err := resolveAgentURL("unix://relative/path")
	assert.Error(t, err)
	assert.Equal(t, ErrURLUnixSocketPathNotAbsolute, err.(*ConfigError).Code)
}

func TestResolveAgentURLMissingSeparator(t *testing.T) {
	_, err := resolveAgentURL("localhost:8126")
	assert.Error(t, err)
	assert.Equal(t, ErrURLMissingSeparator, err.(*ConfigError).Code)
}

func TestParseTagStringCommaAndSpaceSeparated(t *testing.T) {
	tags, err := parseTagString("team:checkout,tier:1")
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"team": "checkout", "tier": "1"}, tags)

	tags, err = parseTagString("team:checkout tier:1")
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"team": "checkout", "tier": "1"}, tags)
}

func TestParseTagStringMissingSeparator(t *testing.T) {
	_, err := parseTagString("no-colon-here")
	assert.Error(t, err)
	assert.Equal(t, ErrTagMissingSeparator, err.(*ConfigError).Code)
}

func TestParseStyleListRejectsUnknownStyle(t *testing.T) {
	_, err := parseStyleList("datadog,bogus")
	assert.Error(t, err)
	assert.Equal(t, ErrUnknownPropagationStyle, err.(*ConfigError).Code)
}

func TestBoolEnvTreatsZeroFalseNoAsFalse(t *testing.T) {
	clearTracerEnv(t)
	for _, v := range []string{"0", "false", "FALSE", "no"} {
		os.Setenv("DD_TRACE_ENABLED", v)
		assert.False(t, boolEnv("DD_TRACE_ENABLED", true), "value %q should be false", v)
	}
	os.Setenv("DD_TRACE_ENABLED", "1")
	assert.True(t, boolEnv("DD_TRACE_ENABLED", false))
	os.Unsetenv("DD_TRACE_ENABLED")
	assert.True(t, boolEnv("DD_TRACE_ENABLED", true))
}

func TestLoadSpanSamplingRulesEnvInlineWinsOverFile(t *testing.T) {
	clearTracerEnv(t)
	os.Setenv("DD_SPAN_SAMPLING_RULES", `[{"service":"checkout","sample_rate":1}]`)
	os.Setenv("DD_SPAN_SAMPLING_RULES_FILE", "/does/not/exist.json")
	c := &config{}
	err := loadSpanSamplingRulesEnv(c)
	assert.NoError(t, err)
	assert.Len(t, c.spanRules, 1)
}

func TestWithFlushIntervalOverridesDefault(t *testing.T) {
	clearTracerEnv(t)
	c, err := finalizeConfig(WithService("checkout"), WithFlushInterval(5*time.Second))
	assert.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.flushInterval)
}
