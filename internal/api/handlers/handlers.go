// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// RespondJSON writes a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if payload == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// RespondError writes the relay's error envelope: {error, details}.
func RespondError(w http.ResponseWriter, status int, message, details string) {
	RespondJSON(w, status, map[string]string{
		"error":   message,
		"details": details,
	})
}
