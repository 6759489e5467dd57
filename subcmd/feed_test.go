package subcmd

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonmeister/pcm2mp3"
)

func TestChunkBytesRoughly100msAndAligned(t *testing.T) {
	cfg := pcm2mp3.DefaultConfig()
	chunk := chunkBytes(cfg)
	assert.Equal(t, 6400, chunk) // 100 ms at 64000 bytes/s
	assert.Zero(t, chunk%cfg.SampleSize())

	odd := pcm2mp3.Config{SampleRate: 44100, Channels: 2, BitDepth: 16, Format: pcm2mp3.S16LE}
	chunk = chunkBytes(odd)
	assert.Zero(t, chunk%odd.SampleSize())
	assert.InDelta(t, odd.ByteRate()/10, chunk, float64(odd.SampleSize()))
}

func TestToneProducesAlignedSine(t *testing.T) {
	g := &tone{rate: 32000, channels: 2, freq: 440}

	buf := make([]byte, 1001)
	n, err := g.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1000, n) // trimmed to whole interleaved samples

	// The sine starts at phase zero and both channels carry the same
	// value.
	first := int16(binary.LittleEndian.Uint16(buf[0:2]))
	second := int16(binary.LittleEndian.Uint16(buf[2:4]))
	assert.Equal(t, int16(0), first)
	assert.Equal(t, first, second)

	maxAmp := 0.3 * math.MaxInt16
	limit := int16(maxAmp) + 1
	varies := false
	for i := 0; i+1 < n; i += 2 {
		v := int16(binary.LittleEndian.Uint16(buf[i:]))
		if v > limit || v < -limit {
			t.Fatalf("sample at %d out of range: %d", i, v)
		}
		if v != first {
			varies = true
		}
	}
	assert.True(t, varies)
}

func TestToneRejectsTooSmallBuffer(t *testing.T) {
	g := &tone{rate: 32000, channels: 2, freq: 440}
	_, err := g.Read(make([]byte, 3))
	assert.ErrorIs(t, err, io.ErrShortBuffer)
}
