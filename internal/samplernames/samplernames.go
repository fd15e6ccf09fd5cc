// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

// Package samplernames holds the enumeration of subsystems that can make a
// sampling decision. The value is carried to the agent and to downstream
// services as the "-<mechanism>" payload of the _dd.p.dm propagating tag.
package samplernames

import "strconv"

// SamplerName identifies the subsystem that produced a SamplingDecision.
type SamplerName int32

const (
	// Unknown means no decision maker tag should be emitted at all. It is
	// the zero-ish sentinel used internally; String still renders it so
	// that tests and debug logs have something to print.
	Unknown SamplerName = -1
	// Default is the rate-1 sampler used when nothing else decided.
	Default SamplerName = 0
	// AgentRate is the collector-fed per-service/env sample rate.
	AgentRate SamplerName = 1
	// RemoteRate is a rate pushed down via remote configuration.
	RemoteRate SamplerName = 2
	// RuleRate is a user-supplied trace sampling rule.
	RuleRate SamplerName = 3
	// Manual is an explicit SetSamplingPriority call.
	Manual SamplerName = 4
	// AppSec marks a decision forced by the security product.
	AppSec SamplerName = 5
	// RemoteUserRate is a remote-configured global rate.
	RemoteUserRate SamplerName = 6
	// SingleSpan marks a decision made by the span sampler (C4), not the
	// trace sampler.
	SingleSpan SamplerName = 8
	// RemoteUserRule is a remote-configured sampling rule.
	RemoteUserRule SamplerName = 11
	// RemoteDynamicRule is a remote-configured rule pushed by dynamic
	// configuration rather than by the user.
	RemoteDynamicRule SamplerName = 12
)

// String returns the "-dd.p.dm" wire encoding for the sampler, e.g. "-3"
// for RuleRate. Unrecognized values fall back to Unknown's encoding.
func (s SamplerName) String() string {
	switch s {
	case Unknown, Default, AgentRate, RemoteRate, RuleRate, Manual, AppSec,
		RemoteUserRate, SingleSpan, RemoteUserRule, RemoteDynamicRule:
		return "-" + strconv.Itoa(int(s))
	default:
		return Unknown.String()
	}
}
