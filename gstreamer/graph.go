package gstreamer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
)

// ErrNotPlaying is returned by Push and EndOfStream when the graph has not
// been started.
var ErrNotPlaying = errors.New("graph is not playing")

// State tracks the lifecycle of a Graph.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StatePlaying
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// busPollInterval bounds how long the bus watcher blocks before it
// re-checks its quit signal.
const busPollInterval = 100 * time.Millisecond

type GraphOption func(*Graph) error

// GraphFormat sets the raw sample format name advertised to the ingest
// stage, for example S16LE.
func GraphFormat(format string) GraphOption {
	return func(g *Graph) error {
		if format == "" {
			return errors.New("empty sample format")
		}
		g.format = format
		return nil
	}
}

func GraphRate(rate int) GraphOption {
	return func(g *Graph) error {
		if rate <= 0 {
			return fmt.Errorf("invalid sample rate: %d", rate)
		}
		g.rate = rate
		return nil
	}
}

func GraphChannels(channels int) GraphOption {
	return func(g *Graph) error {
		if channels <= 0 {
			return fmt.Errorf("invalid channel count: %d", channels)
		}
		g.channels = channels
		return nil
	}
}

// GraphBitrate sets the encoder target bitrate in kbit/s.
func GraphBitrate(kbps int) GraphOption {
	return func(g *Graph) error {
		if kbps <= 0 {
			return fmt.Errorf("invalid bitrate: %d", kbps)
		}
		g.bitrateKbps = kbps
		return nil
	}
}

// GraphNoiseSuppression inserts a webrtcdsp denoising stage between ingest
// and conversion. Graph construction fails when the element is not
// installed.
func GraphNoiseSuppression() GraphOption {
	return func(g *Graph) error {
		g.denoise = true
		return nil
	}
}

// GraphQueueLength sets how many encoded frames the egress stage buffers
// before ingestion blocks upstream.
func GraphQueueLength(frames uint) GraphOption {
	return func(g *Graph) error {
		if frames == 0 {
			return errors.New("queue length must be positive")
		}
		g.queueLen = frames
		return nil
	}
}

// GraphTraceFrames logs every frame leaving the encode stage through a pad
// probe.
func GraphTraceFrames() GraphOption {
	return func(g *Graph) error {
		g.traceFrames = true
		return nil
	}
}

// Graph owns the pipeline appsrc ! audioconvert ! lamemp3enc ! appsink and
// its lifecycle state. Ingestion is blocking: when the encoder cannot keep
// up, Push suspends the caller instead of queueing without bound, and the
// egress stage never drops frames.
type Graph struct {
	format      string
	rate        int
	channels    int
	bitrateKbps int
	queueLen    uint
	denoise     bool
	traceFrames bool

	lock     sync.Mutex
	state    State
	lastErr  error
	closed   bool
	pipeline *gst.Pipeline
	src      *app.Source
	sink     *app.Sink

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewGraph builds and links the four stages. The returned graph is in the
// ready state; no data flows until Start.
func NewGraph(name string, opts ...GraphOption) (*Graph, error) {
	Init()
	g := &Graph{
		format:      "S16LE",
		rate:        32000,
		channels:    1,
		bitrateKbps: 320,
		queueLen:    64,
		state:       StateUninitialized,
		quit:        make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	pipeline, err := gst.NewPipeline(name)
	if err != nil {
		return nil, err
	}
	appsrc, err := gst.NewElementWithProperties("appsrc", map[string]any{
		"is-live":      true,
		"do-timestamp": false,
		"block":        true,
	})
	if err != nil {
		return nil, err
	}
	elements := []*gst.Element{appsrc}
	if g.denoise {
		dsp, err := gst.NewElementWithProperties("webrtcdsp", map[string]any{
			"noise-suppression": true,
			"echo-cancel":       false,
		})
		if err != nil {
			return nil, fmt.Errorf("noise suppression unavailable: %w", err)
		}
		elements = append(elements, dsp)
	}
	convert, err := gst.NewElement("audioconvert")
	if err != nil {
		return nil, err
	}
	encoder, err := gst.NewElementWithProperties("lamemp3enc", map[string]any{
		"target":                  1,
		"bitrate":                 g.bitrateKbps,
		"cbr":                     false,
		"encoding-engine-quality": 2,
	})
	if err != nil {
		return nil, err
	}
	appsink, err := gst.NewElement("appsink")
	if err != nil {
		return nil, err
	}
	if err = SetProperties(appsink, map[string]any{
		"sync":        false,
		"max-buffers": g.queueLen,
		"drop":        false,
	}); err != nil {
		return nil, err
	}
	if g.traceFrames {
		encoder.GetStaticPad("src").AddProbe(gst.PadProbeTypeBuffer, getFrameLogPadProbe("mp3-encoder"))
	}
	elements = append(elements, convert, encoder, appsink)
	if err = pipeline.AddMany(elements...); err != nil {
		return nil, err
	}
	if err = gst.ElementLinkMany(elements...); err != nil {
		return nil, err
	}

	g.src = app.SrcFromElement(appsrc)
	g.src.SetCaps(gst.NewCapsFromString(g.capsString()))
	if err = appsrc.SetProperty("format", gst.FormatTime); err != nil {
		return nil, err
	}
	g.sink = app.SinkFromElement(appsink)
	g.pipeline = pipeline
	g.state = StateReady
	g.wg.Go(g.watchBus)
	return g, nil
}

func (g *Graph) capsString() string {
	return fmt.Sprintf("audio/x-raw,format=%s,rate=%d,channels=%d,layout=interleaved",
		g.format, g.rate, g.channels)
}

// State returns the graph's lifecycle state.
func (g *Graph) State() State {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.state
}

// Start transitions the graph to playing. Either every stage reaches the
// playing state or the stages are torn back down and an error is returned.
func (g *Graph) Start() error {
	g.lock.Lock()
	defer g.lock.Unlock()
	switch g.state {
	case StatePlaying:
		return nil
	case StateUninitialized:
		return errors.New("graph stages not wired")
	}
	if err := g.pipeline.SetState(gst.StatePlaying); err != nil {
		if nerr := g.pipeline.BlockSetState(gst.StateNull); nerr != nil {
			slog.Warn("failed to tear down half-started pipeline", "error", nerr)
		}
		return err
	}
	g.state = StatePlaying
	return nil
}

// Stop transitions the graph from playing to stopped, tearing the stages
// down. Stopping an already stopped or never started graph is a no-op.
func (g *Graph) Stop() error {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.state != StatePlaying {
		return nil
	}
	if err := g.pipeline.BlockSetState(gst.StateNull); err != nil {
		return err
	}
	g.state = StateStopped
	return nil
}

// Push wraps data in a media buffer stamped with pts and dur and hands it
// to the ingest stage in push order. Ownership of the buffer moves into
// the pipeline. Push blocks while the ingest queue is full.
func (g *Graph) Push(data []byte, pts, dur time.Duration) error {
	g.lock.Lock()
	if g.state != StatePlaying {
		g.lock.Unlock()
		return ErrNotPlaying
	}
	src := g.src
	g.lock.Unlock()

	buffer := gst.NewBufferWithSize(int64(len(data)))
	buffer.SetPresentationTimestamp(pts)
	buffer.SetDuration(dur)
	buffer.Map(gst.MapWrite).WriteData(data)
	buffer.Unmap()

	if ret := src.PushBuffer(buffer); ret != gst.FlowOK {
		if last := g.lastError(); last != nil {
			return fmt.Errorf("ingest returned %s: %w", flowName(ret), last)
		}
		return fmt.Errorf("ingest returned %s", flowName(ret))
	}
	return nil
}

// Pull waits up to timeout for the next encoded frame and returns a copy
// of its bytes. The second return is false when no frame became available,
// which happens on timeout, at end of stream and while the graph is not
// playing.
func (g *Graph) Pull(timeout time.Duration) ([]byte, bool) {
	g.lock.Lock()
	sink := g.sink
	playing := g.state == StatePlaying
	g.lock.Unlock()
	if !playing {
		return nil, false
	}
	sample := sink.TryPullSample(gst.ClockTime(timeout))
	if sample == nil {
		return nil, false
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return nil, false
	}
	mapinfo := buffer.Map(gst.MapRead)
	defer buffer.Unmap()
	// The mapped region is only valid until Unmap, hand out a copy.
	data := mapinfo.AsUint8Slice()
	frame := make([]byte, len(data))
	copy(frame, data)
	return frame, true
}

// EndOfStream tells the ingest stage that no more buffers will be pushed,
// which makes the encoder flush its remaining frames into the egress
// stage.
func (g *Graph) EndOfStream() error {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.state != StatePlaying {
		return ErrNotPlaying
	}
	if ret := g.src.EndStream(); ret != gst.FlowOK {
		return fmt.Errorf("end of stream returned %s", flowName(ret))
	}
	return nil
}

// AtEOS reports whether a finished stream has been fully drained from the
// egress stage.
func (g *Graph) AtEOS() bool {
	g.lock.Lock()
	sink := g.sink
	g.lock.Unlock()
	return sink.IsEOS()
}

// Close tears the pipeline down and stops the bus watcher. It never fails
// and is safe to call multiple times.
func (g *Graph) Close() {
	g.lock.Lock()
	if !g.closed {
		g.closed = true
		close(g.quit)
		if g.state == StatePlaying {
			if err := g.pipeline.BlockSetState(gst.StateNull); err != nil {
				slog.Warn("failed to shut down pipeline", "error", err)
			}
			g.state = StateStopped
		}
	}
	g.lock.Unlock()
	g.wg.Wait()
}

func (g *Graph) lastError() error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.lastErr
}

// watchBus drains the pipeline bus so stage errors surface in the log and
// can be attached to subsequent ingest failures.
func (g *Graph) watchBus() {
	bus := g.pipeline.GetPipelineBus()
	for {
		select {
		case <-g.quit:
			return
		default:
		}
		msg := bus.TimedPop(gst.ClockTime(busPollInterval))
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageEOS:
			slog.Debug("pipeline bus reported end of stream")
		case gst.MessageError:
			gerr := msg.ParseError()
			slog.Error("pipeline error", "error", gerr.Error(), "debug", gerr.DebugString())
			g.lock.Lock()
			g.lastErr = gerr
			g.lock.Unlock()
		}
	}
}
