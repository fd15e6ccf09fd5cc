// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"encoding/json"
	"fmt"
)

// SamplingRule is a single rule of the trace or span sampling pipeline
// (C3/C4), grounded on spec.md §3's rule shape and on dd-trace-cpp's
// trace_sampler.h rule struct for field semantics. Service/Name/Resource
// are globs; Tags restricts to spans carrying all listed tag globs.
type SamplingRule struct {
	Service  string            `json:"service,omitempty"`
	Name     string            `json:"name,omitempty"`
	Resource string            `json:"resource,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`

	// SampleRate is required, in [0,1].
	SampleRate float64 `json:"sample_rate"`

	// MaxPerSecond is span-sampling only; <= 0 means unlimited.
	MaxPerSecond float64 `json:"max_per_second,omitempty"`

	matcher *spanMatcher
}

// compiledRule pairs a SamplingRule with its precompiled matcher and (for
// span sampling rules) its own token-bucket limiter.
type compiledRule struct {
	rule    SamplingRule
	matcher *spanMatcher
	limiter *rateLimiter // nil for trace sampling rules, which share one global limiter
}

func compileRule(r SamplingRule) (*compiledRule, error) {
	m, err := newSpanMatcher(r.Service, r.Name, r.Resource, r.Tags)
	if err != nil {
		return nil, newConfigError(ErrRuleWrongType, fmt.Sprintf("invalid rule pattern: %s", err))
	}
	return &compiledRule{rule: r, matcher: m}, nil
}

// traceSamplingRuleJSON / spanSamplingRuleJSON both use this wire shape;
// only validation and the set of known keys differ between the two per
// spec.md §6, so they share one raw struct and diverge only in
// parseTraceSamplingRules / parseSpanSamplingRules.
type ruleJSON struct {
	Service      *string           `json:"service"`
	Name         *string           `json:"name"`
	Resource     *string           `json:"resource"`
	Tags         map[string]string `json:"tags"`
	SampleRate   *float64          `json:"sample_rate"`
	MaxPerSecond *float64          `json:"max_per_second"`
}

var traceSamplingRuleKnownKeys = map[string]bool{
	"service": true, "name": true, "resource": true, "tags": true, "sample_rate": true,
}

var spanSamplingRuleKnownKeys = map[string]bool{
	"service": true, "name": true, "resource": true, "tags": true,
	"sample_rate": true, "max_per_second": true,
}

// parseTraceSamplingRules parses the DD_TRACE_SAMPLING_RULES JSON array
// form described in spec.md §6. Unknown top-level keys in a rule object
// are rejected; a missing sample_rate defaults to 1.0, matching the
// teacher's rules_sampler.go newRulesSampler behavior for rule defaults.
func parseTraceSamplingRules(raw string) ([]SamplingRule, error) {
	return parseRulesJSON(raw, traceSamplingRuleKnownKeys,
		ErrTraceSamplingRulesInvalidJSON,
		ErrTraceSamplingRulesWrongType,
		ErrTraceSamplingRulesSampleRateWrongType,
		ErrTraceSamplingRulesUnknownProperty)
}

// parseSpanSamplingRules parses the DD_SPAN_SAMPLING_RULES JSON array
// form. As with trace rules, a missing sample_rate defaults to 1.0;
// max_per_second (accepted only here) defaults to unlimited (0).
func parseSpanSamplingRules(raw string) ([]SamplingRule, error) {
	return parseRulesJSON(raw, spanSamplingRuleKnownKeys,
		ErrSpanSamplingRulesInvalidJSON,
		ErrSpanSamplingRulesWrongType,
		ErrSpanSamplingRulesSampleRateWrongType,
		ErrSpanSamplingRulesUnknownProperty)
}

func parseRulesJSON(raw string, knownKeys map[string]bool, invalidJSON, wrongType, rateWrongType, unknownProp ConfigErrorCode) ([]SamplingRule, error) {
	var rawRules []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &rawRules); err != nil {
		return nil, newConfigError(invalidJSON, err.Error())
	}
	rules := make([]SamplingRule, 0, len(rawRules))
	for _, rr := range rawRules {
		for key, val := range rr {
			if !knownKeys[key] {
				return nil, newConfigError(unknownProp, fmt.Sprintf("unknown rule property %q", key))
			}
			switch key {
			case "service", "name", "resource":
				var s string
				if err := json.Unmarshal(val, &s); err != nil {
					return nil, newConfigError(ErrRulePropertyWrongType, fmt.Sprintf("rule property %q must be a string", key))
				}
			case "tags":
				var t map[string]string
				if err := json.Unmarshal(val, &t); err != nil {
					return nil, newConfigError(ErrRuleTagWrongType, fmt.Sprintf("rule property %q must be an object of string values", key))
				}
			case "sample_rate":
				var f float64
				if err := json.Unmarshal(val, &f); err != nil {
					return nil, newConfigError(rateWrongType, fmt.Sprintf("rule property %q must be a number", key))
				}
			}
		}
		var parsed ruleJSON
		b, _ := json.Marshal(rr)
		if err := json.Unmarshal(b, &parsed); err != nil {
			return nil, newConfigError(wrongType, err.Error())
		}
		rule := SamplingRule{Tags: parsed.Tags}
		if parsed.Service != nil {
			rule.Service = *parsed.Service
		}
		if parsed.Name != nil {
			rule.Name = *parsed.Name
		}
		if parsed.Resource != nil {
			rule.Resource = *parsed.Resource
		}
		if parsed.SampleRate != nil {
			if *parsed.SampleRate < 0 || *parsed.SampleRate > 1 {
				return nil, newConfigError(ErrRateOutOfRange, fmt.Sprintf("sample_rate %v out of range [0,1]", *parsed.SampleRate))
			}
			rule.SampleRate = *parsed.SampleRate
		} else {
			rule.SampleRate = 1.0
		}
		if parsed.MaxPerSecond != nil {
			if *parsed.MaxPerSecond < 0 {
				return nil, newConfigError(ErrMaxPerSecondOutOfRange, fmt.Sprintf("max_per_second %v must be >= 0", *parsed.MaxPerSecond))
			}
			rule.MaxPerSecond = *parsed.MaxPerSecond
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
