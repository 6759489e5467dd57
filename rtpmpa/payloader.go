// Package rtpmpa packetizes MPEG audio (MP3) frames into RTP packets as
// described by RFC 2250 section 3.5.
package rtpmpa

import (
	"encoding/binary"

	"github.com/pion/rtp"
)

// RFC 3551 assigns MPEG audio the static payload type 14 with a 90 kHz
// media clock.
const (
	PayloadType = 14
	ClockRate   = 90_000
)

// headerSize is the 4 byte header every payload carries: 16 zero bits
// followed by the 16 bit fragmentation offset.
const headerSize = 4

// Payloader fragments MPEG audio frames for RTP. It implements
// rtp.Payloader.
type Payloader struct{}

// Payload splits one MP3 frame into chunks of at most mtu bytes. Each
// chunk carries the MPEG audio header whose offset field gives the
// fragment's byte position within the frame; unfragmented frames carry
// offset zero.
func (p *Payloader) Payload(mtu uint16, payload []byte) [][]byte {
	if len(payload) == 0 || int(mtu) <= headerSize {
		return nil
	}
	maxFragment := int(mtu) - headerSize
	out := make([][]byte, 0, (len(payload)+maxFragment-1)/maxFragment)
	for offset := 0; offset < len(payload); offset += maxFragment {
		end := min(offset+maxFragment, len(payload))
		chunk := make([]byte, headerSize+end-offset)
		binary.BigEndian.PutUint16(chunk[2:4], uint16(offset))
		copy(chunk[headerSize:], payload[offset:end])
		out = append(out, chunk)
	}
	return out
}

// Packetizer turns MP3 frames into marshalled RTP packets.
type Packetizer struct {
	packetizer rtp.Packetizer
}

func NewPacketizer(mtu uint16, ssrc uint32) *Packetizer {
	return &Packetizer{
		packetizer: rtp.NewPacketizer(mtu, PayloadType, ssrc, &Payloader{}, rtp.NewRandomSequencer(), ClockRate),
	}
}

// Containerize fragments one MP3 frame and marshals the resulting RTP
// packets. samples is the frame's duration in 90 kHz clock ticks, see
// FrameTicks.
func (p *Packetizer) Containerize(frame []byte, samples uint32) ([][]byte, error) {
	pkts := p.packetizer.Packetize(frame, samples)
	res := make([][]byte, 0, len(pkts))
	for _, pkt := range pkts {
		buf, err := pkt.Marshal()
		if err != nil {
			return nil, err
		}
		res = append(res, buf)
	}
	return res, nil
}

// FrameTicks returns the duration of one MP3 frame at the given sample
// rate in 90 kHz clock ticks. MPEG-1 layer III frames carry 1152 samples,
// MPEG-2 frames (rates below 32 kHz) carry 576.
func FrameTicks(rate int) uint32 {
	samples := 1152
	if rate < 32000 {
		samples = 576
	}
	return uint32(samples * ClockRate / rate)
}
