// Package gstreamer wraps the GStreamer pipeline that turns raw PCM into
// MP3 frames.
package gstreamer

import (
	"fmt"
	"sync"

	"github.com/go-gst/go-gst/gst"
)

var initOnce sync.Once

// Init initializes the GStreamer library. Graph constructors call it
// implicitly; only the first call has an effect.
func Init() {
	initOnce.Do(func() {
		gst.Init(nil)
	})
}

func SetProperties(e *gst.Element, pp map[string]any) error {
	for k, v := range pp {
		if err := e.SetProperty(k, v); err != nil {
			return err
		}
	}
	return nil
}

// flowName returns the short name of a flow return, for error messages.
func flowName(ret gst.FlowReturn) string {
	switch ret {
	case gst.FlowOK:
		return "ok"
	case gst.FlowEOS:
		return "eos"
	case gst.FlowFlushing:
		return "flushing"
	case gst.FlowNotLinked:
		return "not-linked"
	case gst.FlowNotNegotiated:
		return "not-negotiated"
	case gst.FlowNotSupported:
		return "not-supported"
	case gst.FlowError:
		return "error"
	}
	return fmt.Sprintf("flow-%d", int(ret))
}
