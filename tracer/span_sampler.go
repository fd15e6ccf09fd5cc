// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"time"

	"github.com/hyperiontrace/tracer-go/tracer/ext"
)

// spanSampler is the C4 per-rule span sampler of spec.md §4.3, grounded on
// ddtrace/tracer/single_sampler.go's singleSpanRulesSampler. It only ever
// runs over spans belonging to a trace-level DROP decision.
type spanSampler struct {
	rules []*compiledRule
}

func newSpanSampler(rules []SamplingRule) (*spanSampler, error) {
	compiled := make([]*compiledRule, 0, len(rules))
	for _, r := range rules {
		cr, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		cr.limiter = newRateLimiter(r.MaxPerSecond)
		compiled = append(compiled, cr)
	}
	return &spanSampler{rules: compiled}, nil
}

// apply finds the first matching rule for d and, if its rate and limiter
// both admit, tags d as span-sampled and returns true. It reports false
// (no mutation beyond the rule match itself) when no rule matches, the
// rate draw rejects, or the rule's limiter is exhausted.
func (s *spanSampler) apply(d *spanData, now time.Time) bool {
	for _, cr := range s.rules {
		if !cr.matcher.match(d) {
			continue
		}
		if !sampledByRate(d.spanID, cr.rule.SampleRate) {
			return false
		}
		admitted, _ := cr.limiter.allowOne(now)
		if !admitted {
			return false
		}
		d.setMetric(ext.SpanSamplingMechanism, ext.SingleSpanSamplingMechanism)
		d.setMetric(ext.SpanSamplingRuleRate, cr.rule.SampleRate)
		if cr.rule.MaxPerSecond > 0 {
			d.setMetric(ext.SpanSamplingMaxPerSecond, cr.rule.MaxPerSecond)
		}
		return true
	}
	return false
}
