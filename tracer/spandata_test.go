// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplySpanConfigDefaultsThenOverride(t *testing.T) {
	defaults := SpanDefaults{
		Service: "checkout",
		Env:     "prod",
		Version: "1.2.3",
		Tags:    map[string]string{"team": "payments"},
	}
	data := newSpanData("", "http.request", "", time.Now())

	applySpanConfig(data, defaults, nil)
	assert.Equal(t, "checkout", data.service)
	assert.Equal(t, "prod", data.meta["env"])
	assert.Equal(t, "1.2.3", data.meta["version"])
	assert.Equal(t, "payments", data.meta["team"])
}

func TestApplySpanConfigOverridesWinOverDefaults(t *testing.T) {
	defaults := SpanDefaults{Service: "checkout", Tags: map[string]string{"team": "payments"}}
	data := newSpanData("", "http.request", "", time.Now())

	cfg := &SpanConfig{
		Service:  "billing",
		Resource: "/invoice",
		Tags:     map[string]string{"team": "finance"},
		Metrics:  map[string]float64{"retry.count": 2},
	}
	applySpanConfig(data, defaults, cfg)

	assert.Equal(t, "billing", data.service, "a non-empty override must win over the default service")
	assert.Equal(t, "/invoice", data.resource)
	assert.Equal(t, "finance", data.meta["team"], "an override tag must win over the matching default tag")
	assert.Equal(t, float64(2), data.metrics["retry.count"])
}

func TestApplySpanConfigEmptyOverrideFieldsLeaveDefaultsInPlace(t *testing.T) {
	defaults := SpanDefaults{Service: "checkout", ServiceType: "web"}
	data := newSpanData("", "http.request", "/cart", time.Now())

	applySpanConfig(data, defaults, &SpanConfig{})
	assert.Equal(t, "checkout", data.service, "a zero-value override field must not clobber the default")
	assert.Equal(t, "web", data.serviceType)
	assert.Equal(t, "/cart", data.resource)
}

func TestApplySpanConfigNilConfigOnlyAppliesDefaults(t *testing.T) {
	defaults := SpanDefaults{Service: "checkout"}
	data := newSpanData("", "http.request", "/cart", time.Now())
	applySpanConfig(data, defaults, nil)
	assert.Equal(t, "checkout", data.service)
	assert.Equal(t, "/cart", data.resource)
}
