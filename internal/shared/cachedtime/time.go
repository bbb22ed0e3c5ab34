// Package cachedtime serves a coarse wall clock for entry-age checks. The
// store consults the clock on every read; a 10ms-granular cached value is
// far cheaper than a syscall and more than precise enough for TTLs measured
// in minutes.
package cachedtime

import (
	"sync/atomic"
	"time"
)

const refreshEach = 10 * time.Millisecond

var nowUnix atomic.Int64

func init() {
	nowUnix.Store(time.Now().UnixNano())
	ticker := time.NewTicker(refreshEach)
	go func() {
		for tt := range ticker.C {
			nowUnix.Store(tt.UnixNano())
		}
	}()
}

func Now() time.Time {
	return time.Unix(0, nowUnix.Load())
}

func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
