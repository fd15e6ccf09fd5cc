// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperiontrace/tracer-go/tracer/ext"
)

const (
	traceparentHeader = "traceparent"
	tracestateHeader  = "tracestate"
)

var (
	keyRgx    = regexp.MustCompile(`,|=|[^\x20-\x7E]+`)
	valueRgx  = regexp.MustCompile(`,|;|~|[^\x20-\x7E]+`)
	originRgx = regexp.MustCompile(`,|=|;|[^\x21-\x7E]+`)
)

// traceContextPropagator implements the W3C tracecontext style of spec.md
// §4.1, grounded on textmap.go's propagatorW3c but generalized to this
// module's native 128-bit traceID type (the teacher only carries a 64-bit
// trace id internally and stashes the upper half in a propagating tag).
type traceContextPropagator struct{}

func (traceContextPropagator) Inject(ctx *SpanContext, writer TextMapWriter) error {
	if ctx == nil || ctx.traceID.Empty() || ctx.spanID == 0 {
		return newExtractError(ErrMissingParentSpanID, "invalid span context")
	}
	priority, _ := ctx.SamplingPriority()
	flags := "00"
	if priority >= ext.PriorityAutoKeep {
		flags = "01"
	}
	writer.Set(traceparentHeader, fmt.Sprintf("00-%s-%016x-%s", hex.EncodeToString(ctx.traceID[:]), ctx.spanID, flags))

	var oldState string
	if ctx.segment != nil {
		oldState = ctx.segment.getTracestate()
	}
	writer.Set(tracestateHeader, composeTracestate(ctx, priority, oldState))
	return nil
}

// composeTracestate rebuilds the "dd=" list-member (sampling priority,
// origin, _dd.p.* tags) and appends up to 31 other vendors' list-members
// verbatim, grounded on textmap.go's composeTracestate.
func composeTracestate(ctx *SpanContext, priority int, oldState string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "dd=s:%d", priority)

	if origin := ctx.Origin(); origin != "" {
		fmt.Fprintf(&b, ";o:%s", originRgx.ReplaceAllString(origin, "_"))
	}

	var tags map[string]string
	if ctx.segment != nil {
		tags = ctx.segment.propagatingTagsSnapshot()
	}
	for k, v := range tags {
		if !strings.HasPrefix(k, propagatingTagPrefix) {
			continue
		}
		tag := fmt.Sprintf("t.%s:%s",
			keyRgx.ReplaceAllString(k[len(propagatingTagPrefix):], "_"),
			strings.ReplaceAll(valueRgx.ReplaceAllString(v, "_"), "=", "~"))
		if b.Len()+len(tag)+1 > 256 {
			break
		}
		b.WriteByte(';')
		b.WriteString(tag)
	}

	if oldState == "" {
		return b.String()
	}
	listLength := 1
	for _, member := range strings.Split(strings.Trim(oldState, " \t"), ",") {
		if strings.HasPrefix(member, "dd=") {
			continue
		}
		listLength++
		if listLength > 32 {
			break
		}
		b.WriteByte(',')
		b.WriteString(strings.Trim(member, " \t"))
	}
	return b.String()
}

func (traceContextPropagator) Extract(reader TextMapReader) (*extractedContext, error) {
	var parentHeader, stateHeader string
	var sawParent bool
	err := reader.ForeachKey(func(k, v string) error {
		switch strings.ToLower(k) {
		case traceparentHeader:
			if sawParent {
				return newExtractError(ErrMalformedTraceID, "duplicate traceparent header")
			}
			parentHeader = v
			sawParent = true
		case tracestateHeader:
			stateHeader = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !sawParent {
		return nil, errAbsent
	}
	ctx, err := parseTraceparent(parentHeader)
	if err != nil {
		return nil, err
	}
	parseTracestate(ctx, stateHeader)
	return ctx, nil
}

func parseTraceparent(header string) (*extractedContext, error) {
	header = strings.ToLower(strings.Trim(header, "\t -"))
	if len(header) != 55 {
		return nil, newExtractError(ErrMalformedTraceID, "malformed traceparent")
	}
	parts := strings.Split(header, "-")
	if len(parts) != 4 {
		return nil, newExtractError(ErrMalformedTraceID, "malformed traceparent")
	}
	if len(parts[0]) != 2 {
		return nil, newExtractError(ErrMalformedTraceID, "malformed traceparent version")
	}
	if v, err := strconv.ParseUint(parts[0], 16, 8); err != nil || v == 255 {
		return nil, newExtractError(ErrMalformedTraceID, "malformed traceparent version")
	}
	if len(parts[1]) != 32 {
		return nil, newExtractError(ErrMalformedTraceID, "malformed traceparent trace-id")
	}
	var ctx extractedContext
	upper, err := strconv.ParseUint(parts[1][:16], 16, 64)
	if err != nil {
		return nil, newExtractError(ErrMalformedTraceID, "malformed traceparent trace-id")
	}
	lower, err := strconv.ParseUint(parts[1][16:], 16, 64)
	if err != nil {
		return nil, newExtractError(ErrMalformedTraceID, "malformed traceparent trace-id")
	}
	if upper == 0 && lower == 0 {
		return nil, errAbsent
	}
	ctx.traceID.SetUpper(upper)
	ctx.traceID.SetLower(lower)

	if len(parts[2]) != 16 {
		return nil, newExtractError(ErrMalformedParentID, "malformed traceparent parent-id")
	}
	spanID, err := strconv.ParseUint(parts[2], 16, 64)
	if err != nil {
		return nil, newExtractError(ErrMalformedParentID, "malformed traceparent parent-id")
	}
	if spanID == 0 {
		return nil, errAbsent
	}
	ctx.spanID = spanID

	flags, err := strconv.ParseInt(parts[3], 16, 16)
	if err != nil {
		return nil, newExtractError(ErrMalformedSamplingPriority, "malformed traceparent flags")
	}
	priority := int(flags) & 0x1
	ctx.priority = &priority
	return &ctx, nil
}

// parseTracestate pulls the "dd=" list-member's sampling priority,
// origin, and t.*-prefixed propagating tags, and preserves the header
// verbatim on ctx.tracestate for round-trip re-injection, grounded on
// textmap.go's parseTracestate.
func parseTracestate(ctx *extractedContext, header string) {
	ctx.tracestate = header
	if ctx.propagatingTags == nil {
		ctx.propagatingTags = make(map[string]string)
	}
	for _, member := range strings.Split(strings.Trim(header, "\t "), ",") {
		if !strings.HasPrefix(member, "dd=") {
			continue
		}
		for _, kv := range strings.Split(member[len("dd="):], ";") {
			parts := strings.SplitN(kv, ":", 2)
			if len(parts) != 2 {
				continue
			}
			k, v := parts[0], parts[1]
			switch {
			case k == "o":
				ctx.origin = v
			case k == "s":
				if p, err := strconv.Atoi(v); err == nil {
					flagPriority := 0
					if ctx.priority != nil {
						flagPriority = *ctx.priority
					}
					if (flagPriority == 1 && p > 0) || (flagPriority == 0 && p <= 0) {
						ctx.priority = &p
					}
				}
			case strings.HasPrefix(k, "t."):
				ctx.propagatingTags[propagatingTagPrefix+k[len("t."):]] = strings.ReplaceAll(v, "~", "=")
			}
		}
	}
}
