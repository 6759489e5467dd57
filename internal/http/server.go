package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

type Option func(*Server) error

func Address(address string) Option {
	return func(s *Server) error {
		s.srv.Addr = address
		return nil
	}
}

func Handle(handler http.Handler) Option {
	return func(s *Server) error {
		s.handler = handler
		return nil
	}
}

func RequestLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		s.requestLogger = logger
		return nil
	}
}

func ShutdownTimeout(d time.Duration) Option {
	return func(s *Server) error {
		s.shutdownTimeout = d
		return nil
	}
}

type Server struct {
	logger        *slog.Logger
	requestLogger *slog.Logger

	handler         http.Handler
	shutdownTimeout time.Duration

	srv *http.Server
}

func NewServer(opts ...Option) (*Server, error) {
	s := &Server{
		logger:          slog.Default(),
		requestLogger:   nil,
		handler:         http.DefaultServeMux,
		shutdownTimeout: time.Second,
		srv:             &http.Server{},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.requestLogger != nil {
		s.handler = s.logRequest(s.handler)
	}
	s.srv.Handler = s.handler
	return s, nil
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to the shutdown timeout before closing the remaining
// connections. Live stream responses never finish on their own, so the
// hard close is what ends them.
func (s *Server) ListenAndServe(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s.logger.Info("serving HTTP/1.1", "address", s.srv.Addr)
		return s.srv.ListenAndServe()
	})
	eg.Go(func() error {
		<-ctx.Done()
		err := context.Cause(ctx)
		sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if serr := s.srv.Shutdown(sctx); serr != nil {
			err = errors.Join(err, s.srv.Close())
		}
		return err
	})
	err := eg.Wait()
	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Middleware

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requestLogger.Info("got request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
