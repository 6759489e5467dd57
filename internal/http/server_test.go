package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerLogsRequests(t *testing.T) {
	var logBuf bytes.Buffer
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s, err := NewServer(
		Handle(handler),
		RequestLogger(slog.New(slog.NewTextHandler(&logBuf, nil))),
	)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/stream", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, logBuf.String(), "path=/stream")
}

func TestServerShutsDownOnContextCancel(t *testing.T) {
	s, err := NewServer(
		Address("127.0.0.1:0"),
		Handle(http.NotFoundHandler()),
		ShutdownTimeout(time.Second),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.ListenAndServe(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
