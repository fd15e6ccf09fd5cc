// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

// Package rand implements C1's pseudorandom 64-bit ID generator. IDs are
// produced with the top bit cleared, matching the wire format every
// propagation style in this module assumes (decimal and hex encodings of a
// value that always fits in a signed int64 too).
package rand

import (
	cryptorand "crypto/rand"
	"math"
	"math/big"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperiontrace/tracer-go/internal/log"
)

var (
	warnOnce sync.Once
	seedSeq  int64
	pool     = sync.Pool{
		New: func() interface{} {
			var seed int64
			n, err := cryptorand.Int(cryptorand.Reader, big.NewInt(math.MaxInt64))
			if err == nil {
				seed = n.Int64()
			} else {
				warnOnce.Do(func() {
					log.Warn("cannot generate random seed: %v; using current time", err)
				})
				seed = time.Now().UnixNano()
			}
			return rand.New(rand.NewSource(seed + atomic.AddInt64(&seedSeq, 1)))
		},
	}
)

// Uint64 returns a pseudorandom 63-bit value (the high bit is always 0, so
// the result is always representable as a non-negative signed 64-bit
// integer, which every header encoding in this module relies on).
func Uint64() uint64 {
	r := pool.Get().(*rand.Rand)
	v := uint64(r.Int63())
	pool.Put(r)
	return v
}
