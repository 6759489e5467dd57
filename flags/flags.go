// Package flags implements command-line flags for pcm2mp3.
//
// The design idea is taken from [upspin.io/flags], but most of the code is
// modified. This package uses a slightly modified version of [RegisterInto] and
// the internal [flags]-map. See [Upspin LICENSE] for upspins copyright and
// license information.
//
// [upspin.io/flags]: https://github.com/upspin/upspin/tree/334f107fe3d98225d7adfbb35b74e066fbca9875/flags
// [Upspin LICENSE]: https://github.com/upspin/upspin/blob/334f107fe3d98225d7adfbb35b74e066fbca9875/LICENSE
package flags

import (
	"flag"
	"fmt"

	"github.com/tonmeister/pcm2mp3"
)

type FlagName string

// flag keys
const (
	RateFlag     FlagName = "rate"
	ChannelsFlag FlagName = "channels"
	DepthFlag    FlagName = "depth"
	FormatFlag   FlagName = "format"

	BitrateFlag FlagName = "bitrate"
	DenoiseFlag FlagName = "denoise"

	InputFlag    FlagName = "input"
	OutputFlag   FlagName = "output"
	RealtimeFlag FlagName = "realtime"

	HTTPAddrFlag FlagName = "http-address"
	ToneHzFlag   FlagName = "tone"

	RemoteAddrFlag FlagName = "remote"
	RTPPortFlag    FlagName = "rtp-port"
	MTUFlag        FlagName = "mtu"
	SSRCFlag       FlagName = "ssrc"

	TraceFramesFlag FlagName = "trace-frames"
	TraceRTPFlag    FlagName = "trace-rtp"
)

// Flag vars
var (
	// Raw PCM input format
	Rate     = uint(pcm2mp3.DefaultSampleRate)
	Channels = uint(pcm2mp3.DefaultChannels)
	Depth    = uint(pcm2mp3.DefaultBitDepth)
	Format   = pcm2mp3.S16LE.String()

	// Encoder target bitrate in kbit/s
	Bitrate = uint(320)

	Denoise = false

	// Input and output locations, "-" meaning stdin/stdout
	Input  = "-"
	Output = "-"

	// Realtime paces ingestion at the stream's natural byte rate
	Realtime = false

	// HTTP server
	HTTPAddr = "127.0.0.1:8080"

	// Test tone frequency in Hz, 0 reads the input instead
	ToneHz = uint(0)

	// RTP egress
	RemoteAddr = "127.0.0.1"
	RTPPort    = uint(5004)
	MTU        = uint(1200)
	SSRC       = uint(0)

	TraceFrames = false
	TraceRTP    = false
)

type flagVar func(*flag.FlagSet)

func stringVar(p *string, name FlagName, defaultValue *string, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.StringVar(p, string(name), *defaultValue, usage)
	}
}

func uintVar(p *uint, name FlagName, defaultValue *uint, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.UintVar(p, string(name), *defaultValue, usage)
	}
}

func boolVar(p *bool, name FlagName, defaultValue *bool, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.BoolVar(p, string(name), *defaultValue, usage)
	}
}

var flags = map[FlagName]flagVar{
	// PCM format flags
	RateFlag:     uintVar(&Rate, RateFlag, &Rate, "PCM sample rate in Hz"),
	ChannelsFlag: uintVar(&Channels, ChannelsFlag, &Channels, "PCM channel count"),
	DepthFlag:    uintVar(&Depth, DepthFlag, &Depth, "PCM bit depth"),
	FormatFlag:   stringVar(&Format, FormatFlag, &Format, "PCM sample format (S16LE, S16BE, S24LE, S32LE, F32LE, U8)"),

	// Encoder flags
	BitrateFlag: uintVar(&Bitrate, BitrateFlag, &Bitrate, "MP3 target bitrate in kbit/s"),
	DenoiseFlag: boolVar(&Denoise, DenoiseFlag, &Denoise, "Enable the noise suppression stage"),

	// IO flags
	InputFlag:    stringVar(&Input, InputFlag, &Input, "Raw PCM input file, - for stdin"),
	OutputFlag:   stringVar(&Output, OutputFlag, &Output, "MP3 output file, - for stdout"),
	RealtimeFlag: boolVar(&Realtime, RealtimeFlag, &Realtime, "Pace ingestion at the stream's natural byte rate"),

	// HTTP flags
	HTTPAddrFlag: stringVar(&HTTPAddr, HTTPAddrFlag, &HTTPAddr, "HTTP server address"),
	ToneHzFlag:   uintVar(&ToneHz, ToneHzFlag, &ToneHz, "Replace the input with a sine test tone at this frequency in Hz"),

	// RTP flags
	RemoteAddrFlag: stringVar(&RemoteAddr, RemoteAddrFlag, &RemoteAddr, "Remote address for outgoing RTP"),
	RTPPortFlag:    uintVar(&RTPPort, RTPPortFlag, &RTPPort, "UDP port number for outgoing RTP stream"),
	MTUFlag:        uintVar(&MTU, MTUFlag, &MTU, "MTU for RTP packetization"),
	SSRCFlag:       uintVar(&SSRC, SSRCFlag, &SSRC, "RTP SSRC, 0 picks a random one"),

	// tracing flags
	TraceFramesFlag: boolVar(&TraceFrames, TraceFramesFlag, &TraceFrames, "Log encoded MP3 frames"),
	TraceRTPFlag:    boolVar(&TraceRTP, TraceRTPFlag, &TraceRTP, "Log outgoing RTP packet headers"),
}

func RegisterInto(fs *flag.FlagSet, names ...FlagName) {
	if len(names) == 0 {
		for _, f := range flags {
			f(fs)
		}
	} else {
		for _, n := range names {
			f, ok := flags[n]
			if !ok {
				panic(fmt.Sprintf("unknown flag: %q", n))
			}
			f(fs)
		}
	}
}
