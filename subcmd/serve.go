package subcmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/julienschmidt/httprouter"
	"github.com/tonmeister/pcm2mp3"
	"github.com/tonmeister/pcm2mp3/cmdmain"
	"github.com/tonmeister/pcm2mp3/flags"
	"github.com/tonmeister/pcm2mp3/http"
	"github.com/tonmeister/pcm2mp3/internal/fanout"
	internalhttp "github.com/tonmeister/pcm2mp3/internal/http"
	"github.com/tonmeister/pcm2mp3/internal/model"
	"golang.org/x/sync/errgroup"
)

func init() {
	cmdmain.RegisterSubCmd("serve", func() cmdmain.SubCmd { return new(Serve) })
}

type Serve struct{}

// Help implements cmdmain.SubCmd.
func (s *Serve) Help() string {
	return "Serve a live MP3 stream over HTTP"
}

// Exec implements cmdmain.SubCmd.
func (s *Serve) Exec(cmd string, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)

	flags.RegisterInto(fs,
		flags.RateFlag,
		flags.ChannelsFlag,
		flags.DepthFlag,
		flags.FormatFlag,
		flags.BitrateFlag,
		flags.DenoiseFlag,
		flags.InputFlag,
		flags.HTTPAddrFlag,
		flags.ToneHzFlag,
		flags.TraceFramesFlag,
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Serve a live MP3 stream over HTTP

Encodes PCM from -input (or stdin) and broadcasts the result to every
client fetching %s. Gaps in the input are padded with silence so the
stream never stalls. With -tone set, a sine test tone replaces the
input.

Usage:
	%s serve [flags]

Flags:
`, http.StreamPath, cmd)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr)
	}
	fs.Parse(args)

	if len(fs.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "error: unknown extra arguments: %v\n", fs.Args())
		fs.Usage()
		os.Exit(1)
	}

	input, cfg, err := openLiveInput()
	if err != nil {
		return err
	}
	defer input.Close()

	broker := fanout.NewBroker()
	defer broker.Close()

	opts := []pcm2mp3.Option{
		pcm2mp3.WithConfig(cfg),
		pcm2mp3.WithBitrate(int(flags.Bitrate)),
	}
	if flags.Denoise {
		opts = append(opts, pcm2mp3.WithNoiseSuppression())
	}
	if flags.TraceFrames {
		opts = append(opts, pcm2mp3.WithFrameTracing())
	}
	t, err := pcm2mp3.New(opts...)
	if err != nil {
		return err
	}
	defer t.Close()

	var frames, bytes atomic.Uint64
	if err := t.Start(pcm2mp3.FrameWriterFunc(func(frame []byte) error {
		frames.Add(1)
		bytes.Add(uint64(len(frame)))
		return broker.Publish(frame)
	})); err != nil {
		return err
	}

	info := func() model.StreamInfo {
		return model.StreamInfo{
			Listeners:   broker.Listeners(),
			PositionMs:  t.Position().Milliseconds(),
			Frames:      frames.Load(),
			Bytes:       bytes.Load(),
			SampleRate:  cfg.SampleRate,
			Channels:    cfg.Channels,
			BitrateKbps: int(flags.Bitrate),
			ContentType: "audio/mpeg",
			StreamPath:  http.StreamPath,
		}
	}

	mux := httprouter.New()
	api := http.NewApi(broker, info)
	api.RegisterRoutes(mux)

	server, err := internalhttp.NewServer(
		internalhttp.Address(flags.HTTPAddr),
		internalhttp.Handle(mux),
		internalhttp.RequestLogger(slog.Default()),
	)
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(context.Background())
	eg.Go(func() error {
		return server.ListenAndServe(ctx)
	})
	eg.Go(func() error {
		return feedLive(ctx, t, input)
	})
	return eg.Wait()
}

// openLiveInput picks the PCM source for a live stream: the built-in tone
// generator when -tone is set, the -input file or stdin otherwise.
func openLiveInput() (io.ReadCloser, pcm2mp3.Config, error) {
	if flags.ToneHz == 0 {
		return openPCMInput(flags.Input)
	}
	cfg, err := streamConfig()
	if err != nil {
		return nil, pcm2mp3.Config{}, err
	}
	if cfg.Format != pcm2mp3.S16LE {
		return nil, pcm2mp3.Config{}, fmt.Errorf("test tone produces %v samples, got -format %v", pcm2mp3.S16LE, cfg.Format)
	}
	gen := &tone{
		rate:     cfg.SampleRate,
		channels: cfg.Channels,
		freq:     float64(flags.ToneHz),
	}
	return io.NopCloser(gen), cfg, nil
}
