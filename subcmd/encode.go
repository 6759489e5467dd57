package subcmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tonmeister/pcm2mp3"
	"github.com/tonmeister/pcm2mp3/cmdmain"
	"github.com/tonmeister/pcm2mp3/flags"
)

func init() {
	cmdmain.RegisterSubCmd("encode", func() cmdmain.SubCmd { return new(Encode) })
}

type Encode struct{}

// Help implements cmdmain.SubCmd.
func (e *Encode) Help() string {
	return "Encode raw PCM or WAV input into an MP3 file"
}

// Exec implements cmdmain.SubCmd.
func (e *Encode) Exec(cmd string, args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)

	flags.RegisterInto(fs,
		flags.RateFlag,
		flags.ChannelsFlag,
		flags.DepthFlag,
		flags.FormatFlag,
		flags.BitrateFlag,
		flags.DenoiseFlag,
		flags.InputFlag,
		flags.OutputFlag,
		flags.RealtimeFlag,
		flags.TraceFramesFlag,
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Encode raw PCM or WAV input into an MP3 file

Reads raw PCM from -input (or stdin) in the format given by the format
flags and writes encoded MP3 to -output (or stdout). Files ending in
.wav supply their own format.

Usage:
	%s encode [flags]

Flags:
`, cmd)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr)
	}
	fs.Parse(args)

	if len(fs.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "error: unknown extra arguments: %v\n", fs.Args())
		fs.Usage()
		os.Exit(1)
	}

	input, cfg, err := openPCMInput(flags.Input)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := openOutput(flags.Output)
	if err != nil {
		return err
	}
	defer output.Close()

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

	if err := t.Start(pcm2mp3.FrameWriterFunc(func(frame []byte) error {
		_, err := output.Write(frame)
		return err
	})); err != nil {
		return err
	}

	if err := feed(context.Background(), t, input, flags.Realtime); err != nil {
		return err
	}
	return t.Drain()
}

// openPCMInput opens path as a PCM byte stream. Files ending in .wav are
// decoded and override the format flags with the file header. "-" reads
// raw PCM from stdin.
func openPCMInput(path string) (io.ReadCloser, pcm2mp3.Config, error) {
	cfg, err := streamConfig()
	if err != nil {
		return nil, pcm2mp3.Config{}, err
	}
	if path == "-" {
		return io.NopCloser(os.Stdin), cfg, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, pcm2mp3.Config{}, err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".wav") {
		return file, cfg, nil
	}
	src, err := pcm2mp3.NewWAVSource(file)
	if err != nil {
		file.Close()
		return nil, pcm2mp3.Config{}, err
	}
	return &wavReadCloser{Reader: src, file: file}, src.Config(), nil
}

type wavReadCloser struct {
	io.Reader
	file *os.File
}

func (w *wavReadCloser) Close() error { return w.file.Close() }
