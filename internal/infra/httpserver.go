package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServer owns the API listener lifecycle: serve, drain on cancellation,
// then run registered shutdown hooks (database disconnect and similar). Fire
// and forget generation goroutines are not awaited; their persistence writes
// carry their own contexts.
type HTTPServer struct {
	server *http.Server
	logger Logger
	drain  time.Duration
	hooks  []func(context.Context) error
}

// NewHTTPServer builds a server for the platform's router with the timeouts
// from configuration.
func NewHTTPServer(cfg *Config, logger Logger, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadTimeout:       cfg.HTTPReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			IdleTimeout:       cfg.HTTPIdleTimeout,
		},
		logger: logger,
		drain:  cfg.HTTPIdleTimeout,
	}
}

// OnShutdown registers a hook to run after the listener has drained. Hooks
// run in registration order.
func (s *HTTPServer) OnShutdown(hook func(context.Context) error) {
	s.hooks = append(s.hooks, hook)
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the idle timeout and runs the shutdown hooks. The first error encountered
// is returned.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Msgf("API listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), s.drain)
	defer cancel()

	err := s.server.Shutdown(drainCtx)
	for _, hook := range s.hooks {
		if hookErr := hook(drainCtx); hookErr != nil && err == nil {
			err = hookErr
		}
	}
	return err
}
