// Package server runs the HTTP listener with signal-driven graceful
// shutdown and an ordered set of cleanup hooks.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

type hookDefinition struct {
	name string
	fn   func(context.Context) error
}

// ShutdownHooks manages a collection of hooks to be executed during
// shutdown. Hooks run in the order they were added, and execution continues
// even if a hook fails.
type ShutdownHooks struct {
	hooks []hookDefinition
}

// AddContext registers a shutdown hook that receives the shutdown context.
// Nil hooks are ignored with a warning logged.
func (s *ShutdownHooks) AddContext(name string, hook func(context.Context) error) {
	if hook == nil {
		log.Warn().Str("hook", name).Msg("attempted to add nil shutdown hook; ignoring")
		return
	}

	log.Debug().Str("hook", name).Msg("adding shutdown hook")
	s.hooks = append(s.hooks, hookDefinition{name: name, fn: hook})
}

// Add registers a shutdown hook that does not need a context parameter.
func (s *ShutdownHooks) Add(name string, hook func() error) {
	if hook == nil {
		log.Warn().Str("hook", name).Msg("attempted to add nil shutdown hook; ignoring")
		return
	}

	s.AddContext(name, func(context.Context) error {
		return hook()
	})
}

// Execute runs all registered hooks in order with the provided context.
// Hook failures are logged and do not stop later hooks.
func (s *ShutdownHooks) Execute(ctx context.Context) {
	for _, hook := range s.hooks {
		hookLog := log.With().Str("hook", hook.name).Logger()

		hookLog.Info().Msg("shutdown started")
		if err := hook.fn(ctx); err != nil {
			hookLog.Warn().Err(err).Msg("shutdown failed")
		} else {
			hookLog.Info().Msg("shutdown complete")
		}
	}
}

// Serve runs the HTTP server until SIGINT or SIGTERM, then drains in-flight
// requests within the shutdown timeout and executes the hooks. A nil error
// means the server stopped cleanly.
func Serve(srv *http.Server, shutdownTimeout time.Duration, hooks *ShutdownHooks) error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		// Listener failed before any signal arrived.
		return err
	case <-notifyCtx.Done():
	}

	log.Info().Msg("shutdown signal received, draining")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("shutdown incomplete, closing remaining connections")
		srv.Close()
	}

	if hooks != nil {
		hooks.Execute(ctx)
	}

	if serveListenerErr := <-serveErr; serveListenerErr != nil && !errors.Is(serveListenerErr, http.ErrServerClosed) {
		return serveListenerErr
	}

	return err
}
