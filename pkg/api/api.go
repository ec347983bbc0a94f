// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/telekom/geotrace/internal/logger"
)

var _ API = (*api)(nil)

//go:generate go tool moq -out api_moq.go . API
type API interface {
	// Run serves the API until the context is done or the server is shut down
	Run(ctx context.Context) error
	// Shutdown gracefully stops the server
	Shutdown(ctx context.Context) error
	// RegisterRoutes adds the routes to the router.
	// Must be called before Run.
	RegisterRoutes(ctx context.Context, routes ...Route) error
}

type api struct {
	server *http.Server
	router chi.Router
	tls    TLSConfig
}

const (
	readHeaderTimeout = 5 * time.Second
	// writeTimeout must be longer than a trace may take.
	writeTimeout = 3 * time.Minute
)

// Config is the configuration for the data API
type Config struct {
	ListeningAddress string    `json:"address" yaml:"address" mapstructure:"address"`
	Tls              TLSConfig `json:"tls" yaml:"tls" mapstructure:"tls"`
}

// TLSConfig is the configuration for the TLS setup of the API
type TLSConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	CertPath string `json:"certPath" yaml:"certPath" mapstructure:"certPath"`
	KeyPath  string `json:"keyPath" yaml:"keyPath" mapstructure:"keyPath"`
}

// Validate checks if the API configuration is valid
func (a *Config) Validate() error {
	if a.ListeningAddress == "" {
		return ErrMissingAddress
	}
	if a.Tls.Enabled && (a.Tls.CertPath == "" || a.Tls.KeyPath == "") {
		return ErrMissingCertificate
	}
	return nil
}

// Route is a route of the API
type Route struct {
	Path    string
	Method  string
	Handler http.HandlerFunc
}

// New creates a new API serving on the configured address
func New(cfg Config) API {
	r := chi.NewRouter()
	return &api{
		server: &http.Server{
			Addr:              cfg.ListeningAddress,
			Handler:           r,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
		},
		router: r,
		tls:    cfg.Tls,
	}
}

// Run serves the API and blocks until it is stopped.
// A server closed by [API.Shutdown] is no error.
func (a *api) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	cErr := make(chan error, 1)

	go func(cErr chan error) {
		defer close(cErr)
		log.InfoContext(ctx, "Serving API", "addr", a.server.Addr, "tls", a.tls.Enabled)

		var err error
		if a.tls.Enabled {
			err = a.server.ListenAndServeTLS(a.tls.CertPath, a.tls.KeyPath)
		} else {
			err = a.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			cErr <- err
		}
	}(cErr)

	select {
	case <-ctx.Done():
		return fmt.Errorf("failed serving API: %w", ctx.Err())
	case err := <-cErr:
		if err == nil {
			log.InfoContext(ctx, "API server closed")
			return nil
		}
		log.ErrorContext(ctx, "Failed serving API", "error", err)
		return fmt.Errorf("failed serving API: %w", err)
	}
}

// Shutdown gracefully shuts down the API server
func (a *api) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if err := a.server.Shutdown(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to shutdown API server", "error", err)
		return fmt.Errorf("%w: %w", ErrServerShutdown, err)
	}
	return nil
}

// RegisterRoutes sets up the middlewares and registers the routes.
// Requests to "/" are answered with a plain ok.
func (a *api) RegisterRoutes(ctx context.Context, routes ...Route) error {
	a.router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		logger.Middleware(ctx),
	)

	for _, route := range routes {
		if err := a.registerRoute(route); err != nil {
			return err
		}
	}

	a.router.Get("/", okHandler(ctx))
	return nil
}

func (a *api) registerRoute(route Route) error {
	if route.Path == "" || route.Handler == nil {
		return &ErrInvalidRoute{Path: route.Path, Method: route.Method}
	}

	switch route.Method {
	case http.MethodGet:
		a.router.Get(route.Path, route.Handler)
	case http.MethodPost:
		a.router.Post(route.Path, route.Handler)
	case http.MethodHead:
		a.router.Head(route.Path, route.Handler)
	case "*":
		a.router.HandleFunc(route.Path, route.Handler)
	default:
		return &ErrInvalidRoute{Path: route.Path, Method: route.Method}
	}
	return nil
}

// okHandler returns a handler that will serve status ok
func okHandler(ctx context.Context) http.HandlerFunc {
	log := logger.FromContext(ctx)

	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("ok"))
		if err != nil {
			log.ErrorContext(ctx, "Could not write response", "error", err.Error())
		}
	}
}
