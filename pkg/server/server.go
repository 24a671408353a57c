// Package server exposes the placement engine and layout registries over HTTP.
//
// # Routes
//
//	GET    /healthz
//	POST   /v1/place                          best cell for an occupied set
//	POST   /v1/rank                           every eligible cell, best first
//	GET    /v1/layouts/{layout}/windows       list windows
//	POST   /v1/layouts/{layout}/windows       register a window
//	PATCH  /v1/layouts/{layout}/windows/{id}  update position or size
//	DELETE /v1/layouts/{layout}/windows/{id}  remove a window
//	GET    /v1/layouts/{layout}/occupied      occupied cells
//	POST   /v1/layouts/{layout}/resize        remap to a new viewport
//	GET    /v1/layouts/{layout}/render        draw the grid (?format=text|dot|svg)
//
// Layout routes read the viewport from the width and height query
// parameters, defaulting to the configured viewport. Stored positions are
// pixels in the client's viewport, so a client that resizes should call
// resize and then pass its new dimensions.
//
// Every layout request loads the layout from the store, applies the
// registry operation and saves it back. Requests for the same layout are
// serialized; different layouts proceed in parallel.
//
// Errors are JSON objects {"code", "message"}. INVALID_* codes map to 400,
// *NOT_FOUND codes to 404 and everything else to 500.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/store"
)

// Config configures a Server.
type Config struct {
	Addr     string
	Store    store.Store
	Geometry placement.Geometry
	Logger   *log.Logger

	// ShutdownTimeout bounds graceful shutdown. Zero means 10s.
	ShutdownTimeout time.Duration
}

// Server is the panegrid HTTP API.
type Server struct {
	cfg    Config
	logger *log.Logger
	router chi.Router
	locks  *layoutLocks
}

// New builds the router for cfg.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		locks:  newLayoutLocks(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/place", s.handlePlace)
		r.Post("/rank", s.handleRank)

		r.Route("/layouts/{layout}", func(r chi.Router) {
			r.Get("/windows", s.handleListWindows)
			r.Post("/windows", s.handleRegister)
			r.Patch("/windows/{id}", s.handleUpdate)
			r.Delete("/windows/{id}", s.handleRemove)
			r.Get("/occupied", s.handleOccupied)
			r.Post("/resize", s.handleResize)
			r.Get("/render", s.handleRender)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
