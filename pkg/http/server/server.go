// Package httpserver wraps net/http server lifecycle.
package httpserver

import (
	"context"
	"net/http"
	"time"
)

const (
	defaultAddr            = ":8080"
	defaultShutdownTimeout = 3 * time.Second
)

// Server owns a net/http server started in the background.
type Server struct {
	server          *http.Server
	errCh           chan error
	shutdownTimeout time.Duration
}

// Options configures the server.
type Options struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// New creates the server and starts listening immediately.
func New(handler http.Handler, opt Options) *Server {
	addr := opt.Addr
	if addr == "" {
		addr = defaultAddr
	}

	timeout := opt.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	httpServer := &http.Server{
		Handler: handler,
		Addr:    addr,
	}

	srv := &Server{
		server:          httpServer,
		errCh:           make(chan error, 1),
		shutdownTimeout: timeout,
	}

	go srv.start()

	return srv
}

func (s *Server) start() {
	s.errCh <- s.server.ListenAndServe()
	close(s.errCh)
}

// Notify returns the channel that receives the listener error on exit.
func (s *Server) Notify() <-chan error {
	return s.errCh
}

// Shutdown gracefully stops the server within the shutdown timeout.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}
