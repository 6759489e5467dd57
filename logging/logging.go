// Package logging implements loggers for observing encoded MP3 frames and
// RTP packets at different vantage points of a stream.
package logging

import (
	"log/slog"
	"sync/atomic"

	"github.com/pion/rtp"
)

// FrameLogger logs every encoded frame passing the vantage point it was
// created for. It is safe for concurrent use.
type FrameLogger struct {
	logger *slog.Logger
	count  atomic.Uint64
	bytes  atomic.Uint64
}

func NewFrameLogger(vantagePoint string, logger *slog.Logger) *FrameLogger {
	if logger == nil {
		logger = slog.Default().With("vantage-point", vantagePoint).WithGroup("mp3-frame")
	}
	return &FrameLogger{
		logger: logger,
	}
}

func (l *FrameLogger) LogFrame(frame []byte) {
	count := l.count.Add(1)
	total := l.bytes.Add(uint64(len(frame)))
	l.logger.Info(
		"mp3 frame",
		"index", count-1,
		"size", len(frame),
		"total-bytes", total,
	)
}

// Count returns the number of frames logged so far.
func (l *FrameLogger) Count() uint64 {
	return l.count.Load()
}

// Bytes returns the total size of all frames logged so far.
func (l *FrameLogger) Bytes() uint64 {
	return l.bytes.Load()
}

// RTPLogger logs RTP packet headers passing the vantage point it was
// created for.
type RTPLogger struct {
	logger *slog.Logger
}

func NewRTPLogger(vantagePoint string, logger *slog.Logger) *RTPLogger {
	if logger == nil {
		logger = slog.Default().With("vantage-point", vantagePoint).WithGroup("rtp-packet")
	}
	return &RTPLogger{
		logger: logger,
	}
}

// LogPacketBuf parses buf as an RTP packet and logs its header. Buffers
// that do not parse are skipped.
func (l *RTPLogger) LogPacketBuf(buf []byte) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(buf); err != nil {
		return
	}
	l.logger.Info(
		"rtp packet",
		"version", pkt.Version,
		"padding", pkt.Padding,
		"marker", pkt.Marker,
		"payload-type", pkt.PayloadType,
		"sequence-number", pkt.SequenceNumber,
		"timestamp", pkt.Timestamp,
		"ssrc", pkt.SSRC,
		"payload-length", pkt.Header.MarshalSize()+len(pkt.Payload),
	)
}
