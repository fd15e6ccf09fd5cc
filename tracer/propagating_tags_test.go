// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePropagatableTraceTagsDropsNonConformingKeys(t *testing.T) {
	tags, err := parsePropagatableTraceTags("_dd.p.dm=-3,foo=bar,_dd.p.tid=abc123")
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"_dd.p.dm": "-3", "_dd.p.tid": "abc123"}, tags)
}

func TestParsePropagatableTraceTagsEmpty(t *testing.T) {
	tags, err := parsePropagatableTraceTags("")
	assert.NoError(t, err)
	assert.Empty(t, tags)
}

func TestParsePropagatableTraceTagsMalformed(t *testing.T) {
	_, err := parsePropagatableTraceTags("missing-equals")
	assert.Error(t, err)
}

func TestMarshalPropagatingTagsFiltersPrefix(t *testing.T) {
	s, err := marshalPropagatingTags(map[string]string{"_dd.p.dm": "-3", "other": "x"}, defaultMaxTagsHeaderLen)
	assert.NoError(t, err)
	assert.Equal(t, "_dd.p.dm=-3", s)
}

func TestMarshalPropagatingTagsRespectsMaxLen(t *testing.T) {
	_, err := marshalPropagatingTags(map[string]string{"_dd.p.dm": "-3"}, 5)
	assert.ErrorIs(t, err, errInjectMaxSize)
}

func TestMarshalPropagatingTagsSkipsInvalidValue(t *testing.T) {
	s, err := marshalPropagatingTags(map[string]string{"_dd.p.bad": "has,comma"}, defaultMaxTagsHeaderLen)
	assert.NoError(t, err)
	assert.Empty(t, s)
}
