// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"fmt"
	"strings"
)

// propagatingTagPrefix is the only prefix x-datadog-tags accepts, per
// spec.md §4.1.
const propagatingTagPrefix = "_dd.p."

// propagationExtractMaxSize bounds the x-datadog-tags header size accepted
// on extraction, matching ddtrace/tracer/textmap.go's propagationExtractMaxSize.
const propagationExtractMaxSize = 512

// defaultMaxTagsHeaderLen bounds the size of the x-datadog-tags header
// written on injection, per spec.md §4.1 and §6.
const defaultMaxTagsHeaderLen = 512

// isValidPropagatableTag rejects keys/values that cannot survive the
// comma/equals-delimited wire format, grounded on textmap.go's
// isValidPropagatableTag (reconstructed here since the pack's
// propagating_tags.go body wasn't retrieved, only referenced).
func isValidPropagatableTag(k, v string) error {
	if strings.ContainsAny(k, ",=") {
		return fmt.Errorf("key contains invalid character %q", k)
	}
	if strings.Contains(v, ",") {
		return fmt.Errorf("value contains invalid character %q", v)
	}
	return nil
}

// parsePropagatableTraceTags splits the comma-separated x-datadog-tags
// value into key=value pairs, silently dropping any key that doesn't
// begin with _dd.p., per spec.md §4.1 ("non-conforming keys are silently
// dropped during extraction").
func parsePropagatableTraceTags(v string) (map[string]string, error) {
	tags := make(map[string]string)
	if v == "" {
		return tags, nil
	}
	for _, pair := range strings.Split(v, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed x-datadog-tags segment %q", pair)
		}
		k, val := kv[0], kv[1]
		if !strings.HasPrefix(k, propagatingTagPrefix) {
			continue
		}
		tags[k] = val
	}
	return tags, nil
}

// marshalPropagatingTags serializes the _dd.p.* subset of tags for the
// x-datadog-tags header. If the result would exceed maxLen, it returns
// ("", errInjectMaxSize) and the caller must omit the header entirely.
func marshalPropagatingTags(tags map[string]string, maxLen int) (string, error) {
	var b strings.Builder
	for k, v := range tags {
		if !strings.HasPrefix(k, propagatingTagPrefix) {
			continue
		}
		if err := isValidPropagatableTag(k, v); err != nil {
			continue
		}
		extra := len(k) + len(v) + 1
		if b.Len() > 0 {
			extra++ // comma
		}
		if b.Len()+extra > maxLen {
			return "", errInjectMaxSize
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String(), nil
}

var errInjectMaxSize = fmt.Errorf("inject_max_size")
