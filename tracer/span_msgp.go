// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"time"

	"github.com/tinylib/msgp/msgp"
)

// EncodeMsg writes d as a 12-key msgpack map with exactly the keys
// spec.md §4.6 names: service, name, resource, trace_id, span_id,
// parent_id, start, duration, error, meta, metrics, type. Grounded on
// the wire shape of ddtrace/tracer/span_msgp.go's generated Span
// encoder, hand-written here (rather than msgp-codegen'd) since the
// field set differs from the teacher's (128-bit-aware trace_id handling
// lives in the caller, not in this wire struct).
func (d *spanData) EncodeMsg(en *msgp.Writer) error {
	if err := en.WriteMapHeader(12); err != nil {
		return err
	}
	fields := []struct {
		key string
		wr  func() error
	}{
		{"service", func() error { return en.WriteString(d.service) }},
		{"name", func() error { return en.WriteString(d.name) }},
		{"resource", func() error { return en.WriteString(d.resource) }},
		{"trace_id", func() error { return en.WriteUint64(d.traceID.Lower()) }},
		{"span_id", func() error { return en.WriteUint64(d.spanID) }},
		{"parent_id", func() error { return en.WriteUint64(d.parentID) }},
		{"start", func() error { return en.WriteInt64(d.start.UnixNano()) }},
		{"duration", func() error { return en.WriteInt64(int64(d.duration)) }},
		{"error", func() error {
			if d.err {
				return en.WriteInt32(1)
			}
			return en.WriteInt32(0)
		}},
		{"meta", func() error { return encodeStringMap(en, d.meta) }},
		{"metrics", func() error { return encodeFloatMap(en, d.metrics) }},
		{"type", func() error { return en.WriteString(d.serviceType) }},
	}
	for _, f := range fields {
		if err := en.WriteString(f.key); err != nil {
			return err
		}
		if err := f.wr(); err != nil {
			return err
		}
	}
	return nil
}

func encodeStringMap(en *msgp.Writer, m map[string]string) error {
	if err := en.WriteMapHeader(uint32(len(m))); err != nil {
		return err
	}
	for k, v := range m {
		if err := en.WriteString(k); err != nil {
			return err
		}
		if err := en.WriteString(v); err != nil {
			return err
		}
	}
	return nil
}

func encodeFloatMap(en *msgp.Writer, m map[string]float64) error {
	if err := en.WriteMapHeader(uint32(len(m))); err != nil {
		return err
	}
	for k, v := range m {
		if err := en.WriteString(k); err != nil {
			return err
		}
		if err := en.WriteFloat64(v); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsg is the reverse of EncodeMsg; unknown keys are skipped, which
// keeps decoding forward-compatible with additional fields the agent
// might someday echo back (it never does today, but the collector's own
// tests decode what they just encoded to check round-trip fidelity).
func (d *spanData) DecodeMsg(dc *msgp.Reader) error {
	n, err := dc.ReadMapHeader()
	if err != nil {
		return err
	}
	for ; n > 0; n-- {
		key, err := dc.ReadString()
		if err != nil {
			return err
		}
		switch key {
		case "service":
			d.service, err = dc.ReadString()
		case "name":
			d.name, err = dc.ReadString()
		case "resource":
			d.resource, err = dc.ReadString()
		case "trace_id":
			var v uint64
			v, err = dc.ReadUint64()
			d.traceID.SetLower(v)
		case "span_id":
			d.spanID, err = dc.ReadUint64()
		case "parent_id":
			d.parentID, err = dc.ReadUint64()
		case "start":
			var v int64
			v, err = dc.ReadInt64()
			d.start = time.Unix(0, v)
		case "duration":
			var v int64
			v, err = dc.ReadInt64()
			d.duration = time.Duration(v)
		case "error":
			var v int32
			v, err = dc.ReadInt32()
			d.err = v != 0
		case "meta":
			d.meta, err = decodeStringMap(dc)
		case "metrics":
			d.metrics, err = decodeFloatMap(dc)
		case "type":
			d.serviceType, err = dc.ReadString()
		default:
			err = dc.Skip()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeStringMap(dc *msgp.Reader) (map[string]string, error) {
	n, err := dc.ReadMapHeader()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, n)
	for ; n > 0; n-- {
		k, err := dc.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := dc.ReadString()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

func decodeFloatMap(dc *msgp.Reader) (map[string]float64, error) {
	n, err := dc.ReadMapHeader()
	if err != nil {
		return nil, err
	}
	m := make(map[string]float64, n)
	for ; n > 0; n-- {
		k, err := dc.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := dc.ReadFloat64()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}
