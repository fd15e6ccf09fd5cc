// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import "time"

// Clock is the narrow wall/steady-clock collaborator spec.md §1 keeps out
// of the core. Go's time.Time already fuses a wall reading with a
// monotonic one, so a single Now() is enough to get both: durations are
// computed with time.Since/Sub, which prefer the monotonic reading when
// both Time values carry one.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// defaultClock is the std-clock implementation shipped per spec.md §9.
var defaultClock Clock = systemClock{}
