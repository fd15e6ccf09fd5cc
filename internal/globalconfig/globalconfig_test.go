// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package globalconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceNameDefaultsToEmpty(t *testing.T) {
	assert.Equal(t, "", ServiceName())
}

func TestSetServiceNameRoundTrips(t *testing.T) {
	SetServiceName("checkout")
	assert.Equal(t, "checkout", ServiceName())

	SetServiceName("billing")
	assert.Equal(t, "billing", ServiceName())
}
