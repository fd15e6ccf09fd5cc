// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hyperiontrace/tracer-go/internal/samplernames"
	"github.com/hyperiontrace/tracer-go/tracer/ext"
)

func TestSampledByRateBounds(t *testing.T) {
	assert.True(t, sampledByRate(12345, 1))
	assert.False(t, sampledByRate(12345, 0))
}

func TestSampledByRateDeterministic(t *testing.T) {
	// Same id, same rate, must always draw the same outcome.
	id := uint64(9876543210)
	first := sampledByRate(id, 0.5)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, sampledByRate(id, 0.5))
	}
}

func TestTraceSamplerRuleRateTakesPrecedence(t *testing.T) {
	s, err := newTraceSampler([]SamplingRule{{Service: "checkout", SampleRate: 1}}, 1000)
	assert.NoError(t, err)

	d := newSpanData("checkout", "http.request", "res", time.Now())
	d.traceID = traceIDFromLower(1)
	priority, mechanism, rate := s.decide(d, time.Now())
	assert.Equal(t, ext.PriorityAutoKeep, priority)
	assert.Equal(t, samplernames.RuleRate, mechanism)
	assert.Equal(t, 1.0, rate)
}

func TestTraceSamplerRejectsWhenRuleRateIsZero(t *testing.T) {
	s, err := newTraceSampler([]SamplingRule{{Service: "checkout", SampleRate: 0}}, 1000)
	assert.NoError(t, err)

	d := newSpanData("checkout", "http.request", "res", time.Now())
	d.traceID = traceIDFromLower(1)
	priority, _, _ := s.decide(d, time.Now())
	assert.Equal(t, ext.PriorityAutoReject, priority)
}

func TestTraceSamplerFallsBackToAgentRate(t *testing.T) {
	s, err := newTraceSampler(nil, 1000)
	assert.NoError(t, err)
	s.updateAgentRates(map[string]float64{agentRateKey("checkout", ""): 1})

	d := newSpanData("checkout", "http.request", "res", time.Now())
	d.traceID = traceIDFromLower(1)
	priority, mechanism, _ := s.decide(d, time.Now())
	assert.Equal(t, ext.PriorityAutoKeep, priority)
	assert.Equal(t, samplernames.AgentRate, mechanism)
}

func TestTraceSamplerDefaultsWhenNoRuleOrAgentRate(t *testing.T) {
	s, err := newTraceSampler(nil, 1000)
	assert.NoError(t, err)

	d := newSpanData("checkout", "http.request", "res", time.Now())
	d.traceID = traceIDFromLower(1)
	_, mechanism, rate := s.decide(d, time.Now())
	assert.Equal(t, samplernames.Default, mechanism)
	assert.Equal(t, 1.0, rate)
}

func TestTraceSamplerRateLimiterRejectsBeyondLimit(t *testing.T) {
	s, err := newTraceSampler(nil, 1)
	assert.NoError(t, err)

	now := time.Now()
	d1 := newSpanData("checkout", "http.request", "res", now)
	d1.traceID = traceIDFromLower(1)
	p1, _, _ := s.decide(d1, now)
	assert.Equal(t, ext.PriorityAutoKeep, p1)

	d2 := newSpanData("checkout", "http.request", "res", now)
	d2.traceID = traceIDFromLower(2)
	p2, _, _ := s.decide(d2, now)
	assert.Equal(t, ext.PriorityAutoReject, p2)
}

func TestTraceSamplerUpdateAgentRatesReplacesTable(t *testing.T) {
	s, err := newTraceSampler(nil, 1000)
	assert.NoError(t, err)
	s.updateAgentRates(map[string]float64{agentRateKey("checkout", ""): 1})
	s.updateAgentRates(map[string]float64{})

	d := newSpanData("checkout", "http.request", "res", time.Now())
	d.traceID = traceIDFromLower(1)
	_, mechanism, _ := s.decide(d, time.Now())
	assert.Equal(t, samplernames.Default, mechanism, "an empty feedback table must not leave a stale agent rate behind")
}
