// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"
)

// traceID is a 128-bit trace identifier stored big-endian, <upper><lower>,
// grounded on ddtrace/tracer/spancontext.go's traceID type. When 128-bit
// generation is disabled (or the context was created the old way) the
// upper 8 bytes stay zero and Lower() alone is the wire-compatible 64-bit
// trace_id spec.md §3 describes; the upper half, when present, is carried
// as the _dd.p.tid tag rather than in the numeric trace_id field, per
// spec.md §3 and §9.
type traceID [16]byte

var emptyTraceID traceID

func (t *traceID) Lower() uint64 { return binary.BigEndian.Uint64(t[8:]) }
func (t *traceID) Upper() uint64 { return binary.BigEndian.Uint64(t[:8]) }

func (t *traceID) SetLower(v uint64) { binary.BigEndian.PutUint64(t[8:], v) }
func (t *traceID) SetUpper(v uint64) { binary.BigEndian.PutUint64(t[:8], v) }

// HasUpper reports whether any of the upper 64 bits are set, i.e. whether
// this is a genuinely 128-bit trace id.
func (t *traceID) HasUpper() bool {
	for _, b := range t[:8] {
		if b != 0 {
			return true
		}
	}
	return false
}

// UpperHex renders the upper 64 bits as 16 lowercase hex digits, the form
// stored in the _dd.p.tid tag.
func (t *traceID) UpperHex() string { return hex.EncodeToString(t[:8]) }

// SetUpperFromHex parses a 16-character hex string into the upper 64 bits.
func (t *traceID) SetUpperFromHex(s string) error {
	u, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return err
	}
	t.SetUpper(u)
	return nil
}

func (t *traceID) Empty() bool { return *t == emptyTraceID }

func traceIDFromLower(lower uint64) traceID {
	var t traceID
	t.SetLower(lower)
	return t
}
