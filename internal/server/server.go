// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research orchestrator over HTTP. Two
// interchangeable wrappers are provided: NewWebhook, a plain net/http mux
// with a combined single/batch endpoint, and NewAPI, a gin engine with
// separate single and batch endpoints.
//
// Every request runs on its own goroutine and passes its context to the
// orchestrator, so a request sleeping through rate-limit backoff never
// holds up another.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/lead-research/pkg/types"
)

const (
	// maxBodyBytes bounds request bodies; a batch of names is small.
	maxBodyBytes = 1 << 20

	readHeaderTimeout      = 10 * time.Second
	defaultShutdownTimeout = 30 * time.Second

	missingSubjectMessage = "Provide 'name' or 'names' in request body"
)

// Researcher is the orchestrator as seen by the HTTP layer.
type Researcher interface {
	Research(ctx context.Context, subject string) types.Result
	ResearchBatch(ctx context.Context, subjects []string) []types.Result
}

// health is the body of GET /health.
var health = map[string]string{"status": "ok"}

// errorBody is the body of a rejected request.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// batch wraps results so that an empty batch encodes as [] rather than null.
func batch(results []types.Result) types.Batch {
	if results == nil {
		results = []types.Result{}
	}
	return types.Batch{Leads: results}
}

// Addr formats a listen address from cfg, falling back to the variant's
// default port.
func Addr(cfg types.ServerConfig) string {
	port := cfg.Port
	if port == 0 {
		port = types.DefaultWebhookPort
		if cfg.Variant == types.VariantAPI {
			port = types.DefaultAPIPort
		}
	}
	return net.JoinHostPort(cfg.Host, fmt.Sprint(port))
}

// Serve listens on addr and serves h until ctx is cancelled, then drains
// in-flight requests for at most shutdownTimeout.
func Serve(ctx context.Context, addr string, h http.Handler, log *zap.Logger, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return ServeListener(ctx, ln, h, log, shutdownTimeout)
}

// ServeListener is Serve on an existing listener. It takes ownership of ln.
func ServeListener(ctx context.Context, ln net.Listener, h http.Handler, log *zap.Logger, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          zap.NewStdLog(log.Named("http")),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})
	return g.Wait()
}
