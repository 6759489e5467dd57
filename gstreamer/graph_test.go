package gstreamer

import (
	"testing"
	"time"

	"github.com/go-gst/go-gst/gst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireElements skips the test when the needed pipeline plugins are not
// installed.
func requireElements(t *testing.T, names ...string) {
	t.Helper()
	Init()
	for _, name := range names {
		if _, err := gst.NewElement(name); err != nil {
			t.Skipf("element %q not available: %v", name, err)
		}
	}
}

func TestGraphOptionValidation(t *testing.T) {
	requireElements(t, "appsrc")

	for _, opt := range []GraphOption{
		GraphFormat(""),
		GraphRate(0),
		GraphChannels(-1),
		GraphBitrate(0),
		GraphQueueLength(0),
	} {
		_, err := NewGraph("option-test", opt)
		assert.Error(t, err)
	}
}

func TestGraphLifecycle(t *testing.T) {
	requireElements(t, "appsrc", "audioconvert", "lamemp3enc", "appsink")

	g, err := NewGraph("lifecycle-test")
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, StateReady, g.State())
	require.ErrorIs(t, g.Push(make([]byte, 640), 0, 10*time.Millisecond), ErrNotPlaying)
	require.ErrorIs(t, g.EndOfStream(), ErrNotPlaying)

	require.NoError(t, g.Start())
	assert.Equal(t, StatePlaying, g.State())
	require.NoError(t, g.Start()) // already playing

	require.NoError(t, g.Stop())
	assert.Equal(t, StateStopped, g.State())
	require.NoError(t, g.Stop())
}

func TestGraphEncodesSilenceToMP3(t *testing.T) {
	requireElements(t, "appsrc", "audioconvert", "lamemp3enc", "appsink")

	g, err := NewGraph("encode-test",
		GraphFormat("S16LE"),
		GraphRate(32000),
		GraphChannels(1),
		GraphBitrate(320),
	)
	require.NoError(t, err)
	defer g.Close()
	require.NoError(t, g.Start())

	// 640 ms of silence in 10 ms buffers.
	var pts time.Duration
	for range 64 {
		require.NoError(t, g.Push(make([]byte, 640), pts, 10*time.Millisecond))
		pts += 10 * time.Millisecond
	}
	require.NoError(t, g.EndOfStream())

	var frames [][]byte
	deadline := time.Now().Add(10 * time.Second)
	for !g.AtEOS() {
		if time.Now().After(deadline) {
			t.Fatal("pipeline did not reach end of stream")
		}
		if frame, ok := g.Pull(100 * time.Millisecond); ok {
			frames = append(frames, frame)
		}
	}
	require.NotEmpty(t, frames)

	// Encoded frames start with the MPEG audio sync pattern.
	require.GreaterOrEqual(t, len(frames[0]), 2)
	assert.Equal(t, byte(0xff), frames[0][0])
	assert.Equal(t, byte(0xe0), frames[0][1]&0xe0)

	require.NoError(t, g.Stop())
}
