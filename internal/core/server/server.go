// Package server wires the gateway routes onto a chi router and runs the HTTP listener.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/config"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/health"
	middleware "github.com/mohammed-shakir/ogc-gateway/internal/core/middleware"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/router"
)

// NewHandler builds the gateway route table.
func NewHandler(logger *slog.Logger, version string, h *router.Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness(version))
	r.Head("/healthz", health.Liveness(version))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/csw", func(r chi.Router) {
		r.Get("/records", h.Records())
		r.Get("/capabilities", h.Capabilities(config.KindCSW))
	})
	r.Route("/sos", func(r chi.Router) {
		r.Get("/observations", h.Observations())
		r.Get("/capabilities", h.Capabilities(config.KindSOS))
	})
	r.Get(router.RouteServices, h.Services())
	r.Get(router.RouteFailures, h.RecentFailures())
	return r
}

// Run serves handler on cfg.Addr until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return Serve(ctx, srv, logger)
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
