package pcm2mp3

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockAdvanceReturnsSpanStart(t *testing.T) {
	var c streamClock
	assert.Equal(t, time.Duration(0), c.position())
	assert.Equal(t, time.Duration(0), c.advance(10*time.Millisecond))
	assert.Equal(t, 10*time.Millisecond, c.advance(5*time.Millisecond))
	assert.Equal(t, 15*time.Millisecond, c.position())
}

func TestClockConcurrentAdvancesNeverLoseUpdates(t *testing.T) {
	var c streamClock
	const workers = 8
	const perWorker = 1000
	const d = time.Millisecond

	spans := make([][]time.Duration, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Go(func() {
			starts := make([]time.Duration, 0, perWorker)
			for range perWorker {
				starts = append(starts, c.advance(d))
			}
			spans[i] = starts
		})
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker*d, c.position())

	// Every reserved span must begin where another one ended, with no
	// two spans overlapping.
	var all []time.Duration
	for _, s := range spans {
		all = append(all, s...)
	}
	slices.Sort(all)
	for i, start := range all {
		if start != time.Duration(i)*d {
			t.Fatalf("span %d starts at %v, want %v", i, start, time.Duration(i)*d)
		}
	}
}
