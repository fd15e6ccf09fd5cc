// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

// Package globalconfig holds process-wide values that are set once, at
// tracer-config finalize time, and read by unrelated subsystems afterwards
// (e.g. the startup stand-in log line). It intentionally holds nothing that
// the core mutates after Start returns, matching spec.md §9's "avoid
// singletons" note — this is the one place where a small singleton is
// unavoidable because the value must be visible to code that never receives
// the *Tracer itself.
package globalconfig

import "sync/atomic"

var serviceName atomic.Value

// SetServiceName records the globally configured service name.
func SetServiceName(name string) { serviceName.Store(name) }

// ServiceName returns the last value recorded by SetServiceName, or "".
func ServiceName() string {
	v := serviceName.Load()
	if v == nil {
		return ""
	}
	return v.(string)
}
