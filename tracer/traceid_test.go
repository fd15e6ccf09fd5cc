// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceIDLowerUpper(t *testing.T) {
	var id traceID
	id.SetLower(42)
	id.SetUpper(7)
	assert.Equal(t, uint64(42), id.Lower())
	assert.Equal(t, uint64(7), id.Upper())
	assert.True(t, id.HasUpper())
}

func TestTraceIDFromLowerHasNoUpper(t *testing.T) {
	id := traceIDFromLower(123)
	assert.Equal(t, uint64(123), id.Lower())
	assert.False(t, id.HasUpper())
}

func TestTraceIDEmpty(t *testing.T) {
	var id traceID
	assert.True(t, id.Empty())
	id.SetLower(1)
	assert.False(t, id.Empty())
}

func TestTraceIDUpperHexRoundTrip(t *testing.T) {
	var id traceID
	id.SetUpper(0xdeadbeef)
	hex := id.UpperHex()

	var other traceID
	err := other.SetUpperFromHex(hex)
	assert.NoError(t, err)
	assert.Equal(t, id.Upper(), other.Upper())
}

func TestTraceIDSetUpperFromHexInvalid(t *testing.T) {
	var id traceID
	err := id.SetUpperFromHex("not-hex")
	assert.Error(t, err)
}
