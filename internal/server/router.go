// Package server exposes the verification pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/pipeline"
)

// Verifier runs one verification request
type Verifier interface {
	Verify(ctx context.Context, in pipeline.Input) (*model.Response, error)
}

// NewRouter builds the HTTP routes
func NewRouter(cfg *model.Config, v Verifier) http.Handler {
	h := NewHandler(cfg, v)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/verify", h.Verify)
	})

	return r
}

// Serve listens on cfg.Server.Addr until ctx ends, then shuts down gracefully
func Serve(ctx context.Context, cfg *model.Config, v Verifier) error {
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           NewRouter(cfg, v),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server: listening: addr=%s", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Printf("server: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
