package gstreamer

import (
	"github.com/go-gst/go-gst/gst"
	"github.com/tonmeister/pcm2mp3/logging"
)

// getFrameLogPadProbe returns a buffer probe logging every encoded frame
// that passes the pad it is attached to.
func getFrameLogPadProbe(vantagePointName string) func(p *gst.Pad, ppi *gst.PadProbeInfo) gst.PadProbeReturn {
	logger := logging.NewFrameLogger(vantagePointName, nil)
	return func(p *gst.Pad, ppi *gst.PadProbeInfo) gst.PadProbeReturn {
		if (ppi.Type() & gst.PadProbeTypeBuffer) > 0 {
			buffer := ppi.GetBuffer()
			if buffer != nil {
				mapinfo := buffer.Map(gst.MapRead)
				defer buffer.Unmap()
				logger.LogFrame(mapinfo.AsUint8Slice())
			}
		}
		return gst.PadProbeOK
	}
}
