// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		name     string
		state    string
		progress float64
		want     string
	}{
		{name: "paused upload at full progress is completed", state: "pausedUP", progress: 1, want: StatusCompleted},
		{name: "stalled upload at full progress is completed", state: "stalledUP", progress: 1, want: StatusCompleted},
		{name: "stalled upload mid-transfer is seeding", state: "stalledUP", progress: 0.5, want: StatusSeeding},
		{name: "paused upload mid-transfer is paused", state: "pausedUP", progress: 0.5, want: StatusPaused},
		{name: "uploading", state: "uploading", progress: 1, want: StatusSeeding},
		{name: "downloading", state: "downloading", progress: 0.2, want: StatusDownloading},
		{name: "stalled download is paused", state: "stalledDL", progress: 0.2, want: StatusPaused},
		{name: "queued download", state: "queuedDL", progress: 0, want: StatusQueued},
		{name: "queued upload", state: "queuedUP", progress: 1, want: StatusQueued},
		{name: "checking download", state: "checkingDL", progress: 0.9, want: StatusChecking},
		{name: "checking resume data passes through", state: "checkingResumeData", progress: 0.9, want: "checkingResumeData"},
		{name: "error", state: "error", progress: 0.3, want: StatusError},
		{name: "missing files", state: "missingFiles", progress: 0.3, want: StatusMissingFiles},
		{name: "unknown", state: "unknown", progress: 0, want: StatusUnknown},
		{name: "unrecognized state passes through", state: "bogus", progress: 0, want: "bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapStatus(tt.state, tt.progress))
		})
	}
}
