// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/achtbit/zwart/internal/buildinfo"
)

// UpstreamPinger checks that the daemon is reachable with a usable session.
type UpstreamPinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	upstream UpstreamPinger
}

func NewHealthHandler(upstream UpstreamPinger) *HealthHandler {
	return &HealthHandler{upstream: upstream}
}

func (h *HealthHandler) Routes(r chi.Router) {
	r.Get("/liveness", h.handleLiveness)
	r.Get("/readiness", h.handleReadiness)
}

func (h *HealthHandler) handleLiveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": buildinfo.Version,
	})
}

// handleReadiness reports ready only when the daemon answers.
func (h *HealthHandler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if err := h.upstream.Ping(r.Context()); err != nil {
		RespondError(w, http.StatusServiceUnavailable, "upstream unreachable", err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
