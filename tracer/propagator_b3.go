// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperiontrace/tracer-go/tracer/ext"
)

const (
	b3TraceIDHeader = "x-b3-traceid"
	b3SpanIDHeader  = "x-b3-spanid"
	b3SampledHeader = "x-b3-sampled"
)

// b3Propagator implements the B3 multi-header style of spec.md §4.1,
// grounded on textmap.go's propagatorB3. Only the multi-header form is
// implemented; spec.md never names the single b3 header variant, so it is
// not ported from the teacher.
type b3Propagator struct{}

func (b3Propagator) Inject(ctx *SpanContext, writer TextMapWriter) error {
	if ctx == nil || ctx.traceID.Empty() || ctx.spanID == 0 {
		return newExtractError(ErrMissingParentSpanID, "invalid span context")
	}
	writer.Set(b3TraceIDHeader, fmt.Sprintf("%016x", ctx.traceID.Lower()))
	writer.Set(b3SpanIDHeader, fmt.Sprintf("%016x", ctx.spanID))
	if p, ok := ctx.SamplingPriority(); ok {
		if p >= ext.PriorityAutoKeep {
			writer.Set(b3SampledHeader, "1")
		} else {
			writer.Set(b3SampledHeader, "0")
		}
	}
	return nil
}

func (b3Propagator) Extract(reader TextMapReader) (*extractedContext, error) {
	var ctx extractedContext
	var sawTraceID, sawSpanID bool
	upperTidHex := ""
	err := reader.ForeachKey(func(k, v string) error {
		switch strings.ToLower(k) {
		case b3TraceIDHeader:
			if len(v) == 32 {
				upperTidHex = v[:16]
				v = v[16:]
			} else if len(v) > 16 {
				v = v[len(v)-16:]
			}
			id, err := strconv.ParseUint(v, 16, 64)
			if err != nil {
				return newExtractError(ErrMalformedTraceID, "malformed "+b3TraceIDHeader)
			}
			ctx.traceID.SetLower(id)
			sawTraceID = true
		case b3SpanIDHeader:
			id, err := strconv.ParseUint(v, 16, 64)
			if err != nil {
				return newExtractError(ErrMalformedParentID, "malformed "+b3SpanIDHeader)
			}
			ctx.spanID = id
			sawSpanID = true
		case b3SampledHeader:
			pr, err := strconv.Atoi(v)
			if err != nil {
				return newExtractError(ErrMalformedSamplingPriority, "malformed "+b3SampledHeader)
			}
			ctx.priority = &pr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !sawTraceID {
		return nil, errAbsent
	}
	if !sawSpanID {
		return nil, newExtractError(ErrMissingParentSpanID, "missing "+b3SpanIDHeader)
	}
	// 128-bit upper bits travel as the _dd.p.tid tag, per spec.md §9. The
	// conflict check only sees tags already on ctx, and B3 extraction reads
	// no other trace-tag header before this point, so it never finds a prior
	// _dd.p.tid and malformed_tid is not recorded by this path.
	if upperTidHex != "" {
		var upper uint64
		if _, err := fmt.Sscanf(upperTidHex, "%016x", &upper); err == nil {
			ctx.traceID.SetUpper(upper)
			if upper != 0 {
				if ctx.propagatingTags == nil {
					ctx.propagatingTags = make(map[string]string, 1)
				}
				if prior, ok := ctx.propagatingTags[ext.TraceID128]; ok && prior != upperTidHex {
					ctx.propagationError = "malformed_tid"
				}
				ctx.propagatingTags[ext.TraceID128] = upperTidHex
			}
		}
	}
	return &ctx, nil
}
