package pcm2mp3

import (
	"fmt"
	"time"
)

// Defaults for the raw input stream.
const (
	DefaultSampleRate = 32000
	DefaultChannels   = 1
	DefaultBitDepth   = 16
)

// Config describes the raw PCM input stream. It is immutable after
// construction and fully determines the sample-size arithmetic and the
// capabilities advertised to the conversion stage.
type Config struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Format     SampleFormat
}

func DefaultConfig() Config {
	return Config{
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		BitDepth:   DefaultBitDepth,
		Format:     S16LE,
	}
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", c.Channels)
	}
	if c.BitDepth != c.Format.BitDepth() {
		return fmt.Errorf("bit depth %d does not match sample format %v", c.BitDepth, c.Format)
	}
	return nil
}

// SampleSize returns the size in bytes of one interleaved sample covering
// all channels. Pushed PCM chunks must be a multiple of this size.
func (c Config) SampleSize() int {
	return c.Channels * c.BitDepth / 8
}

// ByteRate returns the number of PCM bytes covering one second of audio.
func (c Config) ByteRate() int {
	return c.SampleRate * c.SampleSize()
}

// duration returns the play time of n samples. Integer scaling keeps
// cumulative durations exact over many small pushes.
func (c Config) duration(samples int64) time.Duration {
	return time.Duration(samples * int64(time.Second) / int64(c.SampleRate))
}

// silenceSamples returns the number of samples covering d, rounded down.
func (c Config) silenceSamples(d time.Duration) int64 {
	return int64(c.SampleRate) * int64(d) / int64(time.Second)
}
