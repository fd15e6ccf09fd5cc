// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package hostname

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDelegatesToOSHostname(t *testing.T) {
	prev := osHostname
	defer func() { osHostname = prev }()

	osHostname = func() (string, error) { return "web-01", nil }
	got, err := Get()
	assert.NoError(t, err)
	assert.Equal(t, "web-01", got)
}

func TestGetPropagatesError(t *testing.T) {
	prev := osHostname
	defer func() { osHostname = prev }()

	want := errors.New("no hostname")
	osHostname = func() (string, error) { return "", want }
	_, err := Get()
	assert.Equal(t, want, err)
}
