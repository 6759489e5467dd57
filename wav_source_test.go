package pcm2mp3

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWAVFixture(t *testing.T, rate, channels, depth int, samples []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, rate, depth, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		SourceBitDepth: depth,
		Data:           samples,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func TestWAVSourceReadsHeaderAndPayload(t *testing.T) {
	samples := []int{0, 1000, -1000, 32767, -32768, 42}
	path := writeWAVFixture(t, 32000, 1, 16, samples)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	src, err := NewWAVSource(f)
	require.NoError(t, err)

	cfg := src.Config()
	assert.Equal(t, 32000, cfg.SampleRate)
	assert.Equal(t, 1, cfg.Channels)
	assert.Equal(t, 16, cfg.BitDepth)
	assert.Equal(t, S16LE, cfg.Format)

	got, err := io.ReadAll(src)
	require.NoError(t, err)

	var want bytes.Buffer
	for _, s := range samples {
		require.NoError(t, binary.Write(&want, binary.LittleEndian, int16(s)))
	}
	assert.Equal(t, want.Bytes(), got)
}

func TestWAVSourceInterleavesStereo(t *testing.T) {
	samples := []int{1, -1, 2, -2, 3, -3} // L R L R L R
	path := writeWAVFixture(t, 44100, 2, 16, samples)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	src, err := NewWAVSource(f)
	require.NoError(t, err)

	cfg := src.Config()
	assert.Equal(t, 2, cfg.Channels)
	assert.Equal(t, 4, cfg.SampleSize())

	got, err := io.ReadAll(src)
	require.NoError(t, err)
	require.Len(t, got, len(samples)*2)
	for i, s := range samples {
		assert.Equal(t, int16(s), int16(binary.LittleEndian.Uint16(got[2*i:])))
	}
}

func TestWAVSourceRejectsNonWAV(t *testing.T) {
	_, err := NewWAVSource(bytes.NewReader([]byte("definitely not a riff wave file")))
	require.ErrorIs(t, err, ErrNotWAV)
}
