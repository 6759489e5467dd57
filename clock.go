package pcm2mp3

import (
	"sync/atomic"
	"time"
)

// streamClock hands out presentation timestamps for pushed buffers. The
// stream position only ever moves forward by the duration of each pushed
// buffer, so timestamps stay contiguous even under concurrent pushers.
type streamClock struct {
	pos atomic.Int64
}

// advance reserves d on the clock as a single atomic step and returns the
// timestamp at which the reserved span begins.
func (c *streamClock) advance(d time.Duration) time.Duration {
	end := c.pos.Add(int64(d))
	return time.Duration(end - int64(d))
}

// position returns the timestamp the next pushed buffer will be assigned.
func (c *streamClock) position() time.Duration {
	return time.Duration(c.pos.Load())
}
