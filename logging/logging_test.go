package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameLoggerAccounting(t *testing.T) {
	l := NewFrameLogger("test", slog.New(slog.DiscardHandler))

	l.LogFrame([]byte{1, 2, 3})
	l.LogFrame([]byte{4, 5})

	assert.Equal(t, uint64(2), l.Count())
	assert.Equal(t, uint64(5), l.Bytes())
}

func TestRTPLoggerLogsHeaders(t *testing.T) {
	var buf bytes.Buffer
	l := NewRTPLogger("test", slog.New(slog.NewTextHandler(&buf, nil)))

	pkt := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    14,
			SequenceNumber: 7,
			Timestamp:      3240,
			SSRC:           99,
		},
		Payload: []byte{0, 0, 0, 0, 0xff},
	}
	data, err := pkt.Marshal()
	require.NoError(t, err)

	l.LogPacketBuf(data)
	out := buf.String()
	assert.Contains(t, out, "sequence-number=7")
	assert.Contains(t, out, "ssrc=99")
	assert.Contains(t, out, "payload-type=14")
}

func TestRTPLoggerSkipsGarbage(t *testing.T) {
	var buf bytes.Buffer
	l := NewRTPLogger("test", slog.New(slog.NewTextHandler(&buf, nil)))

	l.LogPacketBuf([]byte{1})
	assert.Empty(t, buf.String())
}
