package pcm2mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSource reads a RIFF/WAVE file and exposes its payload as a stream of
// interleaved little-endian PCM bytes, ready to be pushed into a
// Transcoder configured with the source's Config.
type WAVSource struct {
	dec    *wav.Decoder
	config Config
	intBuf *audio.IntBuffer
}

func NewWAVSource(r io.ReadSeeker) (*WAVSource, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: audio format %d", ErrUnsupportedWAV, dec.WavAudioFormat)
	}
	var format SampleFormat
	switch dec.BitDepth {
	case 8:
		format = U8
	case 16:
		format = S16LE
	case 24:
		format = S24LE
	case 32:
		format = S32LE
	default:
		return nil, fmt.Errorf("%w: %d bit samples", ErrUnsupportedWAV, dec.BitDepth)
	}
	config := Config{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Format:     format,
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedWAV, err)
	}
	return &WAVSource{
		dec:    dec,
		config: config,
	}, nil
}

// Config returns the PCM stream format declared by the file header.
func (s *WAVSource) Config() Config {
	return s.config
}

// Read fills p with interleaved PCM bytes in the file's native sample
// width. Short reads are possible; io.EOF follows the last sample.
func (s *WAVSource) Read(p []byte) (int, error) {
	width := s.config.BitDepth / 8
	samples := len(p) / width
	if samples == 0 {
		return 0, io.ErrShortBuffer
	}
	if s.intBuf == nil || cap(s.intBuf.Data) < samples {
		s.intBuf = &audio.IntBuffer{
			Data:   make([]int, samples),
			Format: s.dec.Format(),
		}
	}
	s.intBuf.Data = s.intBuf.Data[:samples]
	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	for i, v := range s.intBuf.Data[:n] {
		switch width {
		case 1:
			p[i] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(p[2*i:], uint16(int16(v)))
		case 3:
			p[3*i] = byte(v)
			p[3*i+1] = byte(v >> 8)
			p[3*i+2] = byte(v >> 16)
		case 4:
			binary.LittleEndian.PutUint32(p[4*i:], uint32(int32(v)))
		}
	}
	return n * width, err
}
