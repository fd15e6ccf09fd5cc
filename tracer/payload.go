// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// maxPayloadItems is the largest array length msgpack's array family can
// express, grounded on ddtrace/tracer/payload.go's maxLength.
const maxPayloadItems = 1<<32 - 1

var errPayloadOverflow = fmt.Errorf("maximum msgpack array length (%d) exceeded", maxPayloadItems)

// payload accumulates the top-level array-of-traces body spec.md §4.6
// describes: each push encodes one trace chunk (an array of span maps)
// and appends it to the body; buffer() prepends the outer array header
// lazily, grounded on ddtrace/tracer/payload.go's packedSpans/arrayHeader
// trick, generalized to a nested array-of-arrays instead of a flat list.
type payload struct {
	count uint64
	buf   bytes.Buffer
}

func newPayload() *payload { return &payload{} }

// push msgpack-encodes one trace (an array of spans) and appends it.
func (p *payload) push(spans []*spanData) error {
	if p.count >= maxPayloadItems {
		return errPayloadOverflow
	}
	w := msgp.NewWriter(&p.buf)
	if err := w.WriteArrayHeader(uint32(len(spans))); err != nil {
		return err
	}
	for _, s := range spans {
		if err := s.EncodeMsg(w); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	p.count++
	return nil
}

func (p *payload) itemCount() int { return int(p.count) }

func (p *payload) size() int { return p.buf.Len() + arrayHeaderSize(p.count) }

func (p *payload) reset() {
	p.count = 0
	p.buf.Reset()
}

// buffer returns the full msgpack body: the outer array-of-traces header
// followed by the buffered trace chunks.
func (p *payload) buffer() *bytes.Buffer {
	var header [8]byte
	off := arrayHeader(&header, p.count)
	var out bytes.Buffer
	out.Write(header[off:])
	out.Write(p.buf.Bytes())
	return &out
}

// arrayHeader writes the msgpack array header for a slice of length n
// into out and returns the offset at which to begin reading from out.
// Grounded verbatim on ddtrace/tracer/payload.go's arrayHeader.
func arrayHeader(out *[8]byte, n uint64) (off int) {
	const (
		msgpackArrayFix byte = 144
		msgpackArray16       = 0xdc
		msgpackArray32       = 0xdd
	)
	off = 8 - arrayHeaderSize(n)
	switch {
	case n <= 15:
		out[off] = msgpackArrayFix + byte(n)
	case n <= 1<<16-1:
		binary.BigEndian.PutUint64(out[:], n)
		out[off] = msgpackArray16
	default:
		binary.BigEndian.PutUint64(out[:], n)
		out[off] = msgpackArray32
	}
	return off
}

func arrayHeaderSize(n uint64) int {
	switch {
	case n == 0:
		return 0
	case n <= 15:
		return 1
	case n <= 1<<16-1:
		return 3
	default:
		return 5
	}
}
