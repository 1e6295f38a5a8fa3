// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrents

import "fmt"

// InfiniteETA is the sentinel qBittorrent reports for torrents with no
// computable ETA (100 days, in seconds).
const InfiniteETA = 8640000

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with binary scaling, two decimals, up
// to TB.
func FormatSize(bytes int64) string {
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", size, sizeUnits[unit])
}

// FormatSpeed renders a transfer rate as a scaled size per second.
func FormatSpeed(bytesPerSecond int64) string {
	return FormatSize(bytesPerSecond) + "/s"
}

// FormatETA renders a remaining-time estimate. At or beyond the daemon's
// sentinel the estimate is meaningless and renders as infinity.
func FormatETA(seconds int64) string {
	if seconds < 0 || seconds >= InfiniteETA {
		return "∞"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
