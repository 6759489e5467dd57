// Package http implements the live-stream HTTP API: a continuous
// audio/mpeg response per listener plus a JSON status endpoint.
package http

import (
	"encoding/json"
	"iter"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/tonmeister/pcm2mp3/internal/model"
)

// StreamPath is the route listeners fetch the live MP3 stream from.
const StreamPath = "/stream"

// listenerQueue is the per-listener frame queue. A listener that falls
// further behind than this loses frames instead of stalling the stream.
const listenerQueue = 128

// StreamService hands out subscriptions to the live frame broadcast.
// fanout.Broker implements it.
type StreamService interface {
	Subscribe(queueSize int) (iter.Seq[[]byte], error)
	Listeners() int
}

type API struct {
	logger *slog.Logger
	stream StreamService
	info   func() model.StreamInfo
}

func NewApi(stream StreamService, info func() model.StreamInfo) *API {
	return &API{
		logger: slog.Default(),
		stream: stream,
		info:   info,
	}
}

func (a *API) RegisterRoutes(mux *httprouter.Router) {
	mux.HandlerFunc("GET", StreamPath, a.Stream)
	mux.HandlerFunc("GET", "/api/v1/status", a.Status)
}

// Stream subscribes the caller to the live broadcast and writes MP3
// frames until the client goes away or the stream ends.
func (a *API) Stream(w http.ResponseWriter, r *http.Request) {
	frames, err := a.stream.Subscribe(listenerQueue)
	if err != nil {
		a.writeError(w, http.StatusServiceUnavailable, "stream has ended")
		return
	}
	a.logger.Info("listener connected", "remote", r.RemoteAddr)
	defer a.logger.Info("listener disconnected", "remote", r.RemoteAddr)

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	ctx := r.Context()
	for frame := range frames {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.Write(frame); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (a *API) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a.info()); err != nil {
		a.logger.Warn("failed to encode stream info", "error", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(model.Error{Code: code, Message: msg}); err != nil {
		a.logger.Warn("failed to encode error", "error", err)
	}
}
