// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"net/http"
)

// TextMapWriter sets a single header/value pair on some outbound carrier.
// Grounded on ddtrace/tracer/textmap.go's TextMapWriter.
type TextMapWriter interface {
	Set(key, value string)
}

// TextMapReader performs a case-insensitive ForeachKey walk over an inbound
// carrier. Grounded on ddtrace/tracer/textmap.go's TextMapReader.
type TextMapReader interface {
	ForeachKey(handler func(key, val string) error) error
}

// TextMapCarrier adapts a plain map to TextMapReader/TextMapWriter.
type TextMapCarrier map[string]string

func (c TextMapCarrier) Set(key, value string) { c[key] = value }

func (c TextMapCarrier) ForeachKey(handler func(key, val string) error) error {
	for k, v := range c {
		if err := handler(k, v); err != nil {
			return err
		}
	}
	return nil
}

// HTTPHeadersCarrier adapts http.Header to TextMapReader/TextMapWriter,
// grounded 1:1 on ddtrace/tracer/textmap.go's HTTPHeadersCarrier.
type HTTPHeadersCarrier http.Header

func (c HTTPHeadersCarrier) Set(key, value string) {
	http.Header(c).Set(key, value)
}

func (c HTTPHeadersCarrier) ForeachKey(handler func(key, val string) error) error {
	for k, vs := range c {
		for _, v := range vs {
			if err := handler(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}
