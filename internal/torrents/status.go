// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrents

// Canonical status labels shown to the UI.
const (
	StatusDownloading  = "Downloading"
	StatusSeeding      = "Seeding"
	StatusPaused       = "Paused"
	StatusCompleted    = "Completed"
	StatusQueued       = "Queued"
	StatusChecking     = "Checking"
	StatusError        = "Error"
	StatusMissingFiles = "Missing Files"
	StatusUnknown      = "Unknown"
)

var stateLabels = map[string]string{
	"downloading":  StatusDownloading,
	"stalledDL":    StatusPaused,
	"pausedDL":     StatusPaused,
	"pausedUP":     StatusPaused,
	"stalledUP":    StatusSeeding,
	"uploading":    StatusSeeding,
	"queuedDL":     StatusQueued,
	"queuedUP":     StatusQueued,
	"checkingDL":   StatusChecking,
	"checkingUP":   StatusChecking,
	"error":        StatusError,
	"missingFiles": StatusMissingFiles,
	"unknown":      StatusUnknown,
}

// MapStatus folds a raw daemon state into a canonical label. A torrent at
// 100% whose state is pausedUP or stalledUP counts as Completed rather than
// Paused or Seeding. States outside the table pass through unchanged so new
// daemon states stay visible instead of collapsing into Unknown.
func MapStatus(state string, progress float64) string {
	if progress == 1 && (state == "pausedUP" || state == "stalledUP") {
		return StatusCompleted
	}

	if label, ok := stateLabels[state]; ok {
		return label
	}
	return state
}
