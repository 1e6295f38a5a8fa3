// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/achtbit/zwart/internal/api/handlers"
	"github.com/achtbit/zwart/internal/config"
	"github.com/achtbit/zwart/internal/qbittorrent"
)

type Server struct {
	config         *config.AppConfig
	client         *qbittorrent.Client
	sessionManager *scs.SessionManager
	explorer       handlers.ExplorerService

	httpServer *http.Server
}

func NewServer(cfg *config.AppConfig, client *qbittorrent.Client, sessionManager *scs.SessionManager, explorer handlers.ExplorerService) *Server {
	return &Server{
		config:         cfg,
		client:         client,
		sessionManager: sessionManager,
		explorer:       explorer,
	}
}

// ListenAndServeReady starts the server and signals ready once the listener
// is bound, so the caller can distinguish bind failures from runtime errors.
func (s *Server) ListenAndServeReady(ready chan<- struct{}) error {
	addr := fmt.Sprintf("%s:%d", s.config.Config.Host, s.config.Config.Port)

	var listener net.Listener
	var err error
	for _, proto := range []string{"tcp", "tcp4", "tcp6"} {
		listener, err = net.Listen(proto, addr)
		if err == nil {
			break
		}
	}
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}

	log.Info().Msgf("Starting server. Listening on %s", listener.Addr().String())
	log.Info().Msgf("Open the web interface at http://%s", listener.Addr().String())

	if ready != nil {
		ready <- struct{}{}
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	return s.httpServer.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		log.Error().Err(err).Msg("could not initialize response compression")
	} else {
		r.Use(compress)
	}

	r.Use(cors.New(cors.Options{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	r.Use(s.sessionManager.LoadAndSave)

	authHandler := handlers.NewAuthHandler(s.client, s.sessionManager)
	torrentsHandler := handlers.NewTorrentsHandler(s.client, s.explorer)
	healthHandler := handlers.NewHealthHandler(s.client)

	r.Route(s.config.Config.BaseURL+"api", func(r chi.Router) {
		r.Route("/health", healthHandler.Routes)

		// Brute-force dampening on the login endpoint.
		r.Group(func(r chi.Router) {
			r.Use(middleware.ThrottleBacklog(1, 1, time.Second))
			authHandler.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Route("/torrents", torrentsHandler.Routes)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !handlers.IsAuthenticated(s.sessionManager, r) {
			handlers.RespondError(w, http.StatusUnauthorized, "unauthorized", "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
