// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"math"
	"sync"
	"time"

	"github.com/hyperiontrace/tracer-go/internal/samplernames"
	"github.com/hyperiontrace/tracer-go/tracer/ext"
)

// knuthFactor is the multiplier used to turn a trace id into a uniformly
// distributed draw in [0, 2^64), same constant the agent itself uses.
const knuthFactor = uint64(1111111111111111111)

// sampledByRate reports whether id falls below rate in the deterministic
// Knuth-multiplier hash space, grounded on ddtrace/tracer/sampler.go's
// rateSampler.Sample.
func sampledByRate(id uint64, rate float64) bool {
	if rate >= 1 {
		return true
	}
	if rate <= 0 {
		return false
	}
	return id*knuthFactor < uint64(rate*math.MaxUint64)
}

func agentRateKey(service, env string) string {
	return "service:" + service + ",env:" + env
}

// traceSampler is the C3 rules-plus-limiter sampler of spec.md §4.2,
// generalized from ddtrace/tracer/rules_sampler.go's traceRulesSampler to
// also consult the agent feedback table returned by the collector.
type traceSampler struct {
	rules   []*compiledRule
	limiter *rateLimiter

	mu                 sync.Mutex
	agentRates         map[string]float64
	defaultRateWritten bool
}

// defaultTraceRateLimit is used when DD_TRACE_RATE_LIMIT is unset, per
// spec.md §4.2 step 5 / C3's 200/s default.
const defaultTraceRateLimit = 200.0

func newTraceSampler(rules []SamplingRule, rateLimit float64) (*traceSampler, error) {
	compiled := make([]*compiledRule, 0, len(rules))
	for _, r := range rules {
		cr, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cr)
	}
	if rateLimit <= 0 {
		rateLimit = defaultTraceRateLimit
	}
	return &traceSampler{
		rules:      compiled,
		limiter:    newRateLimiter(rateLimit),
		agentRates: make(map[string]float64),
	}, nil
}

// decide implements spec.md §4.2's six-step algorithm, writing the
// supporting _dd.*_psr tags directly onto d as it goes.
func (s *traceSampler) decide(d *spanData, now time.Time) (priority int, mechanism samplernames.SamplerName, rate float64) {
	s.mu.Lock()
	for _, cr := range s.rules {
		if cr.matcher.match(d) {
			rate = cr.rule.SampleRate
			mechanism = samplernames.RuleRate
			d.setMetric(ext.SamplingRuleRate, rate)
			break
		}
	}
	if mechanism != samplernames.RuleRate {
		env := d.meta[ext.Environment]
		if r, ok := s.agentRates[agentRateKey(d.service, env)]; ok {
			rate = r
			mechanism = samplernames.AgentRate
			d.setMetric(ext.SamplingAgentRate, rate)
		} else {
			rate = 1.0
			mechanism = samplernames.Default
			if !s.defaultRateWritten {
				d.setMetric(ext.SamplingAgentRate, 1.0)
				s.defaultRateWritten = true
			}
		}
	}
	s.mu.Unlock()

	if !sampledByRate(d.traceID.Lower(), rate) {
		return ext.PriorityAutoReject, mechanism, rate
	}
	admitted, effRate := s.limiter.allowOne(now)
	if !admitted {
		return ext.PriorityAutoReject, mechanism, rate
	}
	d.setMetric(ext.SamplingLimiterRate, effRate)
	return ext.PriorityAutoKeep, mechanism, rate
}

// updateAgentRates replaces the per-service/env feedback table wholesale
// with the collector's latest rate_by_service response, per spec.md §4.6.
func (s *traceSampler) updateAgentRates(rates map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentRates = rates
}
