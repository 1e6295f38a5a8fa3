// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achtbit/zwart/internal/config"
	"github.com/achtbit/zwart/internal/domain"
	"github.com/achtbit/zwart/internal/qbittorrent"
)

type stubExplorer struct {
	opened []string
	err    error
}

func (s *stubExplorer) Open(ctx context.Context, hash string) error {
	if s.err != nil {
		return s.err
	}
	s.opened = append(s.opened, hash)
	return nil
}

// daemonHandler fakes just enough of the qBittorrent WebAPI for the relay
// endpoints under test.
func daemonHandler(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostFormValue("username") != "admin" || r.PostFormValue("password") != "hunter2" {
			fmt.Fprint(w, "Fails.")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "sid-1"})
		fmt.Fprint(w, "Ok.")
	})

	mux.HandleFunc("/api/v2/app/webapiVersion", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "2.11.2")
	})

	mux.HandleFunc("/api/v2/app/version", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "v5.1.2")
	})

	torrents := []qbittorrent.Torrent{
		{Hash: "aaa", Name: "Movie.Name.2020.1080p.BluRay.x264-GROUP", State: "downloading", Progress: 0.4, Size: 1073741824, ETA: 1800, AddedOn: 100, Category: "movies"},
		{Hash: "bbb", Name: "Ubuntu ISO", State: "pausedUP", Progress: 1, ETA: 8640000, AddedOn: 200},
	}

	mux.HandleFunc("/api/v2/torrents/info", func(w http.ResponseWriter, r *http.Request) {
		list := torrents
		if hashes := r.URL.Query().Get("hashes"); hashes != "" {
			list = nil
			for _, torrent := range torrents {
				if torrent.Hash == hashes {
					list = append(list, torrent)
				}
			}
			if list == nil {
				list = []qbittorrent.Torrent{}
			}
		}
		require.NoError(t, json.NewEncoder(w).Encode(list))
	})

	mux.HandleFunc("/api/v2/torrents/categories", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"movies":{"name":"movies","savePath":"/downloads/movies"}}`)
	})

	mux.HandleFunc("/api/v2/torrents/files", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name":"Movie.Name.2020/movie.mkv","size":1000,"progress":1,"priority":1,"availability":1}]`)
	})

	mux.HandleFunc("/api/v2/torrents/delete", func(w http.ResponseWriter, r *http.Request) {})

	mux.HandleFunc("/api/v2/torrents/stop", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, "torrent is busy")
	})

	return mux
}

func newTestServer(t *testing.T, upstreamURL string, explorer *stubExplorer) *Server {
	t.Helper()

	cfg := &config.AppConfig{
		Config: &domain.Config{
			Host:    "localhost",
			Port:    0,
			BaseURL: "/",
		},
	}

	client := qbittorrent.NewClient(upstreamURL, "admin", "hunter2")

	sessionManager := scs.New()
	sessionManager.Store = memstore.New()
	sessionManager.Lifetime = time.Hour

	return NewServer(cfg, client, sessionManager, explorer)
}

// login performs the relay login and returns the session cookie.
func login(t *testing.T, handler http.Handler) *http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"admin","password":"hunter2"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	upstream := httptest.NewServer(daemonHandler(t))
	defer upstream.Close()

	handler := newTestServer(t, upstream.URL, &stubExplorer{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "login failed", body["error"])
}

func TestTorrentsRequireSession(t *testing.T) {
	upstream := httptest.NewServer(daemonHandler(t))
	defer upstream.Close()

	handler := newTestServer(t, upstream.URL, &stubExplorer{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/torrents", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListTorrentsDecorated(t *testing.T) {
	upstream := httptest.NewServer(daemonHandler(t))
	defer upstream.Close()

	handler := newTestServer(t, upstream.URL, &stubExplorer{}).Handler()
	cookie := login(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/torrents?sort=added_on", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, "Movie Name", rows[0]["title"])
	assert.Equal(t, "movies", rows[0]["categoryName"])
	assert.Equal(t, "Downloading", rows[0]["status"])
	assert.Equal(t, "1.00 GB", rows[0]["sizeHuman"])

	assert.Equal(t, "Completed", rows[1]["status"])
	assert.Equal(t, "∞", rows[1]["etaHuman"])
	assert.Equal(t, "Uncategorized", rows[1]["categoryName"])
}

func TestListTorrentsFiltered(t *testing.T) {
	upstream := httptest.NewServer(daemonHandler(t))
	defer upstream.Close()

	handler := newTestServer(t, upstream.URL, &stubExplorer{}).Handler()
	cookie := login(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/torrents?status=completed", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "bbb", rows[0]["hash"])
}

func TestGetTorrentNotFound(t *testing.T) {
	upstream := httptest.NewServer(daemonHandler(t))
	defer upstream.Close()

	handler := newTestServer(t, upstream.URL, &stubExplorer{}).Handler()
	cookie := login(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/torrents/zzz", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveTorrent(t *testing.T) {
	upstream := httptest.NewServer(daemonHandler(t))
	defer upstream.Close()

	handler := newTestServer(t, upstream.URL, &stubExplorer{}).Handler()
	cookie := login(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/torrents/aaa/remove", strings.NewReader(`{"deleteFiles":true}`))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStopTorrentMirrorsUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(daemonHandler(t))
	defer upstream.Close()

	handler := newTestServer(t, upstream.URL, &stubExplorer{}).Handler()
	cookie := login(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/torrents/aaa/stop", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "torrent is busy", body["details"])
}

func TestOpenInExplorer(t *testing.T) {
	upstream := httptest.NewServer(daemonHandler(t))
	defer upstream.Close()

	explorer := &stubExplorer{}
	handler := newTestServer(t, upstream.URL, explorer).Handler()
	cookie := login(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/torrents/aaa/open-in-explorer", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"aaa"}, explorer.opened)
}

func TestLogoutDestroysSession(t *testing.T) {
	upstream := httptest.NewServer(daemonHandler(t))
	defer upstream.Close()

	handler := newTestServer(t, upstream.URL, &stubExplorer{}).Handler()
	cookie := login(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/torrents", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	upstream := httptest.NewServer(daemonHandler(t))
	defer upstream.Close()

	handler := newTestServer(t, upstream.URL, &stubExplorer{}).Handler()

	for _, path := range []string{"/api/health/liveness", "/api/health/readiness", "/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
