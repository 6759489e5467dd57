package http

import (
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonmeister/pcm2mp3/internal/model"
)

type fakeStream struct {
	frames    [][]byte
	err       error
	listeners int
}

func (f *fakeStream) Subscribe(queueSize int) (iter.Seq[[]byte], error) {
	if f.err != nil {
		return nil, f.err
	}
	return slices.Values(f.frames), nil
}

func (f *fakeStream) Listeners() int { return f.listeners }

func noInfo() model.StreamInfo { return model.StreamInfo{} }

func TestStreamWritesFramesAsMPEGAudio(t *testing.T) {
	stream := &fakeStream{frames: [][]byte{[]byte("fra"), []byte("me")}}
	api := NewApi(stream, noInfo)

	mux := httprouter.New()
	api.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", StreamPath, nil))

	res := rec.Result()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "audio/mpeg", res.Header.Get("Content-Type"))
	assert.Equal(t, "no-store", res.Header.Get("Cache-Control"))

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "frame", string(body))
}

func TestStreamUnavailableWhenSubscribeFails(t *testing.T) {
	api := NewApi(&fakeStream{err: errors.New("broker closed")}, noInfo)

	rec := httptest.NewRecorder()
	api.Stream(rec, httptest.NewRequest("GET", StreamPath, nil))

	res := rec.Result()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)

	var e model.Error
	require.NoError(t, json.NewDecoder(res.Body).Decode(&e))
	assert.Equal(t, http.StatusServiceUnavailable, e.Code)
	assert.NotEmpty(t, e.Message)
}

func TestStatusReportsStreamInfo(t *testing.T) {
	want := model.StreamInfo{
		Listeners:   3,
		PositionMs:  640,
		Frames:      25,
		Bytes:       12800,
		SampleRate:  32000,
		Channels:    1,
		BitrateKbps: 320,
		ContentType: "audio/mpeg",
		StreamPath:  StreamPath,
	}
	api := NewApi(&fakeStream{listeners: 3}, func() model.StreamInfo { return want })

	mux := httprouter.New()
	api.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/status", nil))

	res := rec.Result()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var got model.StreamInfo
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, want, got)
}
