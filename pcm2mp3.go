// Package pcm2mp3 converts a continuous stream of raw PCM audio into a
// continuous stream of MP3 frames. Callers push fixed-format PCM chunks or
// synthetic silence and receive each encoded frame through a FrameWriter as
// it becomes available.
package pcm2mp3

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tonmeister/pcm2mp3/gstreamer"
)

// FrameWriter consumes encoded MP3 frames in encode order. WriteFrame is
// called synchronously on the egress pump goroutine, exactly once per frame.
type FrameWriter interface {
	WriteFrame(frame []byte) error
}

// FrameWriterFunc adapts a function to the FrameWriter interface.
type FrameWriterFunc func([]byte) error

func (f FrameWriterFunc) WriteFrame(frame []byte) error {
	return f(frame)
}

// graph is the encoding pipeline a Transcoder drives. gstreamer.Graph
// implements it.
type graph interface {
	Start() error
	Stop() error
	Push(data []byte, pts, dur time.Duration) error
	Pull(timeout time.Duration) ([]byte, bool)
	EndOfStream() error
	AtEOS() bool
	Close()
}

type Option func(*Transcoder) error

// WithConfig sets the raw PCM input format. The default is 32 kHz mono
// signed 16-bit little-endian.
func WithConfig(c Config) Option {
	return func(t *Transcoder) error {
		if err := c.validate(); err != nil {
			return err
		}
		t.config = c
		return nil
	}
}

// WithBitrate sets the encoder target bitrate in kbit/s. The default is
// 320 kbit/s in variable-bitrate mode.
func WithBitrate(kbps int) Option {
	return func(t *Transcoder) error {
		if kbps <= 0 {
			return fmt.Errorf("invalid bitrate: %d", kbps)
		}
		t.bitrateKbps = kbps
		return nil
	}
}

// WithNoiseSuppression inserts a denoising stage between ingest and
// conversion. Construction fails if the required pipeline element is not
// available.
func WithNoiseSuppression() Option {
	return func(t *Transcoder) error {
		t.denoise = true
		return nil
	}
}

// WithFrameTracing logs every frame leaving the encode stage.
func WithFrameTracing() Option {
	return func(t *Transcoder) error {
		t.traceFrames = true
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Transcoder) error {
		if logger == nil {
			return errors.New("nil logger")
		}
		t.logger = logger
		return nil
	}
}

// withGraph injects a prebuilt pipeline graph. Tests use it to drive the
// Transcoder against an in-process fake.
func withGraph(g graph) Option {
	return func(t *Transcoder) error {
		t.graph = g
		return nil
	}
}

// Transcoder owns the encoding pipeline, the presentation clock and the
// egress pump. Pushes may be issued concurrently from multiple goroutines;
// frames are delivered one at a time on a single pump goroutine.
type Transcoder struct {
	config      Config
	bitrateKbps int
	denoise     bool
	traceFrames bool
	logger      *slog.Logger

	graph graph
	clock streamClock

	playing atomic.Bool
	drained atomic.Bool

	lock   sync.Mutex
	pump   *pump
	closed bool
}

func New(opts ...Option) (*Transcoder, error) {
	t := &Transcoder{
		config:      DefaultConfig(),
		bitrateKbps: 320,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	if t.graph == nil {
		graphOpts := []gstreamer.GraphOption{
			gstreamer.GraphFormat(t.config.Format.String()),
			gstreamer.GraphRate(t.config.SampleRate),
			gstreamer.GraphChannels(t.config.Channels),
			gstreamer.GraphBitrate(t.bitrateKbps),
		}
		if t.denoise {
			graphOpts = append(graphOpts, gstreamer.GraphNoiseSuppression())
		}
		if t.traceFrames {
			graphOpts = append(graphOpts, gstreamer.GraphTraceFrames())
		}
		g, err := gstreamer.NewGraph("pcm2mp3", graphOpts...)
		if err != nil {
			return nil, err
		}
		t.graph = g
	}
	return t, nil
}

// Config returns the raw PCM input format the Transcoder was built with.
func (t *Transcoder) Config() Config {
	return t.config
}

// Position returns the presentation timestamp the next pushed buffer will
// be assigned, which equals the total duration pushed so far.
func (t *Transcoder) Position() time.Duration {
	return t.clock.position()
}

// Start transitions the graph to playing and spawns the egress pump bound
// to w. It is all-or-nothing: on error no pump is spawned and the
// Transcoder stays in its prior state, usable for a retry.
func (t *Transcoder) Start(w FrameWriter) error {
	if w == nil {
		return errors.New("nil frame writer")
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.closed {
		return errors.New("transcoder closed")
	}
	if t.drained.Load() {
		return ErrDrained
	}
	if t.pump != nil {
		return errors.New("transcoder already started")
	}
	if err := t.graph.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}
	t.pump = startPump(t.graph, w, t.logger)
	t.playing.Store(true)
	return nil
}

// Stop signals the pump, blocks until it has fully exited and then stops
// the graph, so no frame delivery races with pipeline teardown. It is
// idempotent and safe to call on a never-started Transcoder.
func (t *Transcoder) Stop() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.stopLocked()
}

func (t *Transcoder) stopLocked() error {
	t.playing.Store(false)
	if t.pump != nil {
		t.pump.stop()
		t.pump = nil
	}
	return t.graph.Stop()
}

// PushPCM validates and ingests one chunk of raw PCM. The chunk length
// must be a multiple of Config.SampleSize. An empty chunk is a no-op.
// Pushing into a graph that cannot keep up blocks the caller until the
// pipeline has room.
func (t *Transcoder) PushPCM(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	sampleSize := t.config.SampleSize()
	if len(data)%sampleSize != 0 {
		return fmt.Errorf("%w: %d bytes with %d byte samples", ErrInvalidAlignment, len(data), sampleSize)
	}
	if t.drained.Load() {
		return ErrDrained
	}
	if !t.playing.Load() {
		return fmt.Errorf("%w: %w", ErrIngestRejected, gstreamer.ErrNotPlaying)
	}
	dur := t.config.duration(int64(len(data)) / int64(sampleSize))
	pts := t.clock.advance(dur)
	if err := t.graph.Push(data, pts, dur); err != nil {
		return fmt.Errorf("%w: %w", ErrIngestRejected, err)
	}
	return nil
}

// PushSilence synthesizes d worth of zero-valued samples and routes them
// through the same ingestion path as real PCM, to pad gaps in the input
// without breaking timestamp continuity.
func (t *Transcoder) PushSilence(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	samples := t.config.silenceSamples(d)
	if samples == 0 {
		return nil
	}
	return t.PushPCM(make([]byte, samples*int64(t.config.SampleSize())))
}

// Drain ends the input stream, waits until the encoder has flushed and the
// pump has delivered every remaining frame, and then stops the graph. The
// Transcoder is terminal afterwards: further pushes fail with ErrDrained.
func (t *Transcoder) Drain() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.drained.Load() {
		return nil
	}
	if t.pump == nil {
		return errors.New("transcoder not started")
	}
	t.drained.Store(true)
	if err := t.graph.EndOfStream(); err != nil {
		return err
	}
	t.pump.wait()
	t.pump = nil
	t.playing.Store(false)
	return t.graph.Stop()
}

// Close stops the Transcoder and releases the pipeline. Errors during
// teardown are logged, never returned. Close is idempotent.
func (t *Transcoder) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.stopLocked(); err != nil {
		t.logger.Warn("failed to stop pipeline graph", "error", err)
	}
	t.graph.Close()
	return nil
}
