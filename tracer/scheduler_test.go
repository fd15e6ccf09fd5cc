// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickerSchedulerRunsRepeatedly(t *testing.T) {
	var calls int32
	cancel := tickerScheduler{}.Schedule(5*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	})
	defer cancel()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestTickerSchedulerCancelStopsFurtherCalls(t *testing.T) {
	var calls int32
	cancel := tickerScheduler{}.Schedule(5*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	})
	cancel()
	cancel() // must be safe to call twice

	time.Sleep(20 * time.Millisecond)
	seen := atomic.LoadInt32(&calls)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, seen, atomic.LoadInt32(&calls), "no more calls should arrive after cancel")
}
