package subcmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"os"
	"strconv"

	"github.com/tonmeister/pcm2mp3"
	"github.com/tonmeister/pcm2mp3/cmdmain"
	"github.com/tonmeister/pcm2mp3/flags"
	"github.com/tonmeister/pcm2mp3/logging"
	"github.com/tonmeister/pcm2mp3/rtpmpa"
)

func init() {
	cmdmain.RegisterSubCmd("send", func() cmdmain.SubCmd { return new(Send) })
}

type Send struct{}

// Help implements cmdmain.SubCmd.
func (s *Send) Help() string {
	return "Send a live MP3 stream over RTP/UDP"
}

// Exec implements cmdmain.SubCmd.
func (s *Send) Exec(cmd string, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)

	flags.RegisterInto(fs,
		flags.RateFlag,
		flags.ChannelsFlag,
		flags.DepthFlag,
		flags.FormatFlag,
		flags.BitrateFlag,
		flags.DenoiseFlag,
		flags.InputFlag,
		flags.ToneHzFlag,
		flags.RemoteAddrFlag,
		flags.RTPPortFlag,
		flags.MTUFlag,
		flags.SSRCFlag,
		flags.TraceFramesFlag,
		flags.TraceRTPFlag,
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Send a live MP3 stream over RTP/UDP

Encodes PCM from -input (or stdin) and sends each MP3 frame as MPEG
audio RTP packets to -remote. Gaps in the input are padded with
silence so the stream never stalls. With -tone set, a sine test tone
replaces the input.

Usage:
	%s send [flags]

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

	input, cfg, err := openLiveInput()
	if err != nil {
		return err
	}
	defer input.Close()

	addr := net.JoinHostPort(flags.RemoteAddr, strconv.Itoa(int(flags.RTPPort)))
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	ssrc := uint32(flags.SSRC)
	if ssrc == 0 {
		ssrc = rand.Uint32()
	}
	packetizer := rtpmpa.NewPacketizer(uint16(flags.MTU), ssrc)
	ticks := rtpmpa.FrameTicks(cfg.SampleRate)

	var rtpLogger *logging.RTPLogger
	if flags.TraceRTP {
		rtpLogger = logging.NewRTPLogger("udp-sender", nil)
	}

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
		pkts, err := packetizer.Containerize(frame, ticks)
		if err != nil {
			return err
		}
		for _, pkt := range pkts {
			if rtpLogger != nil {
				rtpLogger.LogPacketBuf(pkt)
			}
			if _, err := conn.Write(pkt); err != nil {
				return err
			}
		}
		return nil
	})); err != nil {
		return err
	}

	slog.Info("sending RTP", "remote", addr, "ssrc", ssrc, "payload-type", rtpmpa.PayloadType)
	return feedLive(context.Background(), t, input)
}
