package pcm2mp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleFormatRoundTrip(t *testing.T) {
	for _, f := range []SampleFormat{S16LE, S16BE, S24LE, S32LE, F32LE, U8} {
		parsed, err := NewSampleFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}
}

func TestSampleFormatUnknown(t *testing.T) {
	_, err := NewSampleFormat("S8")
	assert.Error(t, err)
}

func TestSampleFormatBitDepth(t *testing.T) {
	assert.Equal(t, 8, U8.BitDepth())
	assert.Equal(t, 16, S16LE.BitDepth())
	assert.Equal(t, 16, S16BE.BitDepth())
	assert.Equal(t, 24, S24LE.BitDepth())
	assert.Equal(t, 32, S32LE.BitDepth())
	assert.Equal(t, 32, F32LE.BitDepth())
}
