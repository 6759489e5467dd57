package subcmd

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/tonmeister/pcm2mp3"
	"github.com/tonmeister/pcm2mp3/flags"
	"golang.org/x/time/rate"
)

// streamConfig assembles the PCM input format from the shared flags.
func streamConfig() (pcm2mp3.Config, error) {
	format, err := pcm2mp3.NewSampleFormat(flags.Format)
	if err != nil {
		return pcm2mp3.Config{}, err
	}
	return pcm2mp3.Config{
		SampleRate: int(flags.Rate),
		Channels:   int(flags.Channels),
		BitDepth:   int(flags.Depth),
		Format:     format,
	}, nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// chunkBytes returns the feed chunk size: roughly 100 ms of audio, aligned
// to the sample size.
func chunkBytes(cfg pcm2mp3.Config) int {
	chunk := cfg.ByteRate() / 10
	chunk -= chunk % cfg.SampleSize()
	if chunk < cfg.SampleSize() {
		chunk = cfg.SampleSize()
	}
	return chunk
}

// feed pushes PCM from r into t in chunks until EOF. With realtime set,
// ingestion is paced at the stream's natural byte rate.
func feed(ctx context.Context, t *pcm2mp3.Transcoder, r io.Reader, realtime bool) error {
	cfg := t.Config()
	chunk := chunkBytes(cfg)
	var limiter *rate.Limiter
	if realtime {
		limiter = rate.NewLimiter(rate.Limit(cfg.ByteRate()), chunk)
	}
	buf := make([]byte, chunk)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if limiter != nil {
			if err := limiter.WaitN(ctx, len(buf)); err != nil {
				return err
			}
		}
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			aligned := n - n%cfg.SampleSize()
			if aligned > 0 {
				if err := t.PushPCM(buf[:aligned]); err != nil {
					return err
				}
			}
			if aligned != n {
				slog.Warn("dropping trailing bytes of a partial sample", "bytes", n-aligned)
			}
		}
		if readErr == io.EOF || errors.Is(readErr, io.ErrUnexpectedEOF) {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("failed to read pcm input: %w", readErr)
		}
	}
}

// feedLive pushes PCM from r at the stream's natural byte rate and pads
// read gaps with silence, so the outgoing stream and the presentation
// clock stay continuous even when the input stalls or ends. It returns
// only on context cancellation or a push error.
func feedLive(ctx context.Context, t *pcm2mp3.Transcoder, r io.Reader) error {
	cfg := t.Config()
	chunk := chunkBytes(cfg)
	gap := 2 * time.Duration(chunk/cfg.SampleSize()) * time.Second / time.Duration(cfg.SampleRate)
	limiter := rate.NewLimiter(rate.Limit(cfg.ByteRate()), chunk)

	chunks := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(chunks)
		for {
			buf := make([]byte, chunk)
			n, err := io.ReadFull(r, buf)
			if n > 0 {
				aligned := n - n%cfg.SampleSize()
				if aligned > 0 {
					select {
					case chunks <- buf[:aligned]:
					case <-ctx.Done():
						return
					}
				}
			}
			if err != nil {
				if err != io.EOF && !errors.Is(err, io.ErrUnexpectedEOF) {
					readErr <- fmt.Errorf("failed to read pcm input: %w", err)
				}
				return
			}
		}
	}()

	timer := time.NewTimer(gap)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case buf, ok := <-chunks:
			if !ok {
				chunks = nil
				slog.Info("pcm input ended, continuing with silence")
				continue
			}
			if err := limiter.WaitN(ctx, len(buf)); err != nil {
				return err
			}
			if err := t.PushPCM(buf); err != nil {
				return err
			}
		case <-timer.C:
			if err := t.PushSilence(gap); err != nil {
				return err
			}
		}
		timer.Reset(gap)
	}
}

// tone is an endless PCM source producing a sine wave in interleaved
// 16-bit little-endian samples.
type tone struct {
	rate     int
	channels int
	freq     float64
	phase    float64
}

func (g *tone) Read(p []byte) (int, error) {
	sampleSize := 2 * g.channels
	n := len(p) - len(p)%sampleSize
	if n == 0 {
		return 0, io.ErrShortBuffer
	}
	step := 2 * math.Pi * g.freq / float64(g.rate)
	for i := 0; i < n; i += sampleSize {
		v := int16(0.3 * math.MaxInt16 * math.Sin(g.phase))
		for c := 0; c < g.channels; c++ {
			binary.LittleEndian.PutUint16(p[i+2*c:], uint16(v))
		}
		g.phase += step
	}
	g.phase = math.Mod(g.phase, 2*math.Pi)
	return n, nil
}
