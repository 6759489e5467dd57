package rtpmpa

import (
	"encoding/binary"
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadSmallFrameSingleChunk(t *testing.T) {
	p := &Payloader{}
	chunks := p.Payload(1200, []byte{1, 2, 3, 4})
	require.Len(t, chunks, 1)
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, chunks[0])
}

func TestPayloadFragmentsCarryByteOffsets(t *testing.T) {
	p := &Payloader{}
	frame := make([]byte, 1000)
	for i := range frame {
		frame[i] = byte(i)
	}

	chunks := p.Payload(404, frame) // 400 payload bytes per chunk
	require.Len(t, chunks, 3)

	var reassembled []byte
	for i, c := range chunks {
		assert.Equal(t, uint16(0), binary.BigEndian.Uint16(c[0:2]))
		assert.Equal(t, uint16(i*400), binary.BigEndian.Uint16(c[2:4]))
		reassembled = append(reassembled, c[headerSize:]...)
	}
	assert.Equal(t, frame, reassembled)
}

func TestPayloadDegenerateInputs(t *testing.T) {
	p := &Payloader{}
	assert.Nil(t, p.Payload(1200, nil))
	assert.Nil(t, p.Payload(headerSize, []byte{1}))
}

func TestPacketizerEmitsMPEGAudioPackets(t *testing.T) {
	pktz := NewPacketizer(1200, 0xdecafbad)
	frame := make([]byte, 500)

	first, err := pktz.Containerize(frame, FrameTicks(32000))
	require.NoError(t, err)
	require.Len(t, first, 1)

	var pkt rtp.Packet
	require.NoError(t, pkt.Unmarshal(first[0]))
	assert.Equal(t, uint8(PayloadType), pkt.PayloadType)
	assert.Equal(t, uint32(0xdecafbad), pkt.SSRC)

	second, err := pktz.Containerize(frame, FrameTicks(32000))
	require.NoError(t, err)
	require.Len(t, second, 1)

	var next rtp.Packet
	require.NoError(t, next.Unmarshal(second[0]))
	assert.Equal(t, uint32(3240), next.Timestamp-pkt.Timestamp)
	assert.Equal(t, pkt.SequenceNumber+1, next.SequenceNumber)
}

func TestPacketizerFragmentsLargeFrames(t *testing.T) {
	pktz := NewPacketizer(300, 1)
	frame := make([]byte, 700)
	for i := range frame {
		frame[i] = byte(i)
	}

	pkts, err := pktz.Containerize(frame, FrameTicks(48000))
	require.NoError(t, err)
	require.Greater(t, len(pkts), 1)

	// All fragments of one frame share a timestamp and reassemble to
	// the original payload.
	var first rtp.Packet
	require.NoError(t, first.Unmarshal(pkts[0]))
	var reassembled []byte
	for _, buf := range pkts {
		var pkt rtp.Packet
		require.NoError(t, pkt.Unmarshal(buf))
		assert.Equal(t, first.Timestamp, pkt.Timestamp)
		reassembled = append(reassembled, pkt.Payload[headerSize:]...)
	}
	assert.Equal(t, frame, reassembled)
}

func TestFrameTicks(t *testing.T) {
	assert.Equal(t, uint32(3240), FrameTicks(32000))
	assert.Equal(t, uint32(2160), FrameTicks(48000))
	assert.Equal(t, uint32(2351), FrameTicks(44100))
	// MPEG-2 rates carry 576 samples per frame.
	assert.Equal(t, uint32(3240), FrameTicks(16000))
	assert.Equal(t, uint32(2160), FrameTicks(24000))
}
