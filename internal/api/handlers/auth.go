// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/achtbit/zwart/internal/qbittorrent"
)

const sessionAuthKey = "authenticated"

type AuthHandler struct {
	client         *qbittorrent.Client
	sessionManager *scs.SessionManager
}

func NewAuthHandler(client *qbittorrent.Client, sessionManager *scs.SessionManager) *AuthHandler {
	return &AuthHandler{
		client:         client,
		sessionManager: sessionManager,
	}
}

func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin checks the submitted credentials against the daemon and, on
// success, establishes a browser session.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.client.CheckLogin(r.Context(), req.Username, req.Password); err != nil {
		if qbittorrent.IsAuthError(err) {
			log.Debug().Str("username", req.Username).Msg("login rejected")
			RespondError(w, http.StatusUnauthorized, "login failed", "invalid credentials")
			return
		}

		log.Error().Err(err).Msg("login check failed")
		RespondError(w, http.StatusInternalServerError, "login failed", err.Error())
		return
	}

	// Fresh token on privilege change.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		RespondError(w, http.StatusInternalServerError, "session error", err.Error())
		return
	}
	h.sessionManager.Put(r.Context(), sessionAuthKey, true)

	log.Info().Str("username", req.Username).Msg("user logged in")
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogout tears down both the upstream daemon session and the browser
// session.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.client.Logout(r.Context())

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		RespondError(w, http.StatusInternalServerError, "logout failed", err.Error())
		return
	}

	log.Info().Msg("user logged out")
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// IsAuthenticated reports whether the request carries a logged-in browser
// session.
func IsAuthenticated(sessionManager *scs.SessionManager, r *http.Request) bool {
	return sessionManager.GetBool(r.Context(), sessionAuthKey)
}
