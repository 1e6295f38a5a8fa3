// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package qbittorrent

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrTorrentNotFound = errors.New("torrent not found")

// AuthError means a login (initial or re-login) was refused by the daemon.
// The wrapped call is never attempted after an AuthError.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "qBittorrent authentication failed"
	}
	return fmt.Sprintf("qBittorrent authentication failed: %s", e.Reason)
}

// UpstreamError is any non-auth failure from the daemon. It carries the
// upstream status and response body so handlers can surface detail.
type UpstreamError struct {
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("qBittorrent request failed: status %d: %s", e.StatusCode, e.Detail)
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// AsUpstreamError unwraps err to an UpstreamError if possible.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr, true
	}
	return nil, false
}
