// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/achtbit/zwart/internal/qbittorrent"
	"github.com/achtbit/zwart/internal/torrents"
)

// ExplorerService opens a torrent's content directory on the relay host.
type ExplorerService interface {
	Open(ctx context.Context, hash string) error
}

type TorrentsHandler struct {
	client   *qbittorrent.Client
	explorer ExplorerService
}

func NewTorrentsHandler(client *qbittorrent.Client, explorer ExplorerService) *TorrentsHandler {
	return &TorrentsHandler{
		client:   client,
		explorer: explorer,
	}
}

func (h *TorrentsHandler) Routes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Route("/{hash}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Get("/files", h.handleFiles)
		r.Post("/remove", h.handleRemove)
		r.Post("/stop", h.handleStop)
		r.Post("/open-in-explorer", h.handleOpenInExplorer)
	})
}

// handleList returns the decorated torrent list. Filtering and sorting run
// server-side, driven by query parameters.
func (h *TorrentsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.client.Torrents(ctx)
	if err != nil {
		h.respondUpstreamError(w, err, "failed to fetch torrents")
		return
	}

	categories, err := h.client.Categories(ctx)
	if err != nil {
		// Rows degrade to Uncategorized; the list itself is still useful.
		log.Warn().Err(err).Msg("failed to fetch categories")
		categories = nil
	}

	filters := filtersFromQuery(r)
	RespondJSON(w, http.StatusOK, torrents.Build(list, categories, filters))
}

func filtersFromQuery(r *http.Request) torrents.Filters {
	q := r.URL.Query()

	filters := torrents.Filters{
		Search:   q.Get("search"),
		Status:   strings.ToLower(q.Get("status")),
		Category: q.Get("category"),
		SortBy:   q.Get("sort"),
		SortDesc: q.Get("order") == "desc",
	}

	if kind, value := q.Get("tagKind"), q.Get("tagValue"); kind != "" && value != "" {
		filters.Tag = &torrents.Tag{Kind: kind, Value: value}
	}

	return filters
}

func (h *TorrentsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	torrent, err := h.client.TorrentByHash(r.Context(), hash)
	if err != nil {
		if errors.Is(err, qbittorrent.ErrTorrentNotFound) {
			RespondError(w, http.StatusNotFound, "torrent not found", hash)
			return
		}
		h.respondUpstreamError(w, err, "failed to fetch torrent")
		return
	}

	RespondJSON(w, http.StatusOK, torrent)
}

func (h *TorrentsHandler) handleFiles(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	files, err := h.client.Files(r.Context(), hash)
	if err != nil {
		h.respondUpstreamError(w, err, "failed to fetch torrent files")
		return
	}

	RespondJSON(w, http.StatusOK, files)
}

type removeRequest struct {
	DeleteFiles bool `json:"deleteFiles"`
}

func (h *TorrentsHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	var req removeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	if err := h.client.Delete(r.Context(), hash, req.DeleteFiles); err != nil {
		h.respondUpstreamError(w, err, "failed to remove torrent")
		return
	}

	log.Info().Str("hash", hash).Bool("delete_files", req.DeleteFiles).Msg("torrent removed")
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStop mirrors the daemon's own status code on failure so the UI sees
// what the daemon said.
func (h *TorrentsHandler) handleStop(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	if err := h.client.Stop(r.Context(), hash); err != nil {
		if upErr, ok := qbittorrent.AsUpstreamError(err); ok {
			RespondError(w, upErr.StatusCode, "failed to stop torrent", upErr.Detail)
			return
		}
		h.respondUpstreamError(w, err, "failed to stop torrent")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *TorrentsHandler) handleOpenInExplorer(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	if err := h.explorer.Open(r.Context(), hash); err != nil {
		log.Error().Err(err).Str("hash", hash).Msg("failed to open in explorer")
		RespondError(w, http.StatusInternalServerError, "failed to open in explorer", err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"message": "opened in explorer"})
}

func (h *TorrentsHandler) respondUpstreamError(w http.ResponseWriter, err error, message string) {
	log.Error().Err(err).Msg(message)

	if qbittorrent.IsAuthError(err) {
		RespondError(w, http.StatusBadGateway, message, "daemon authentication failed")
		return
	}
	if upErr, ok := qbittorrent.AsUpstreamError(err); ok {
		RespondError(w, http.StatusInternalServerError, message, upErr.Detail)
		return
	}
	RespondError(w, http.StatusInternalServerError, message, err.Error())
}
