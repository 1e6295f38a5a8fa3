// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package qbittorrent

// Torrent mirrors the subset of /api/v2/torrents/info the UI consumes.
// The daemon owns these records; the relay never persists them.
type Torrent struct {
	Hash     string  `json:"hash"`
	Name     string  `json:"name"`
	State    string  `json:"state"`
	Progress float64 `json:"progress"`
	Size     int64   `json:"size"`
	DlSpeed  int64   `json:"dlspeed"`
	UpSpeed  int64   `json:"upspeed"`
	NumSeeds int64   `json:"num_seeds"`
	NumLeech int64   `json:"num_leechs"`
	ETA      int64   `json:"eta"`
	AddedOn  int64   `json:"added_on"`
	Category string  `json:"category"`
	SavePath string  `json:"save_path"`
}

// TorrentFile is one entry from /api/v2/torrents/files.
type TorrentFile struct {
	Name         string  `json:"name"`
	Size         int64   `json:"size"`
	Progress     float64 `json:"progress"`
	Priority     int     `json:"priority"`
	Availability float64 `json:"availability"`
}

// TorrentProperties carries the fields of /api/v2/torrents/properties the
// relay needs (save path resolution for open-in-explorer).
type TorrentProperties struct {
	SavePath    string `json:"save_path"`
	TotalSize   int64  `json:"total_size"`
	PieceSize   int64  `json:"piece_size"`
	SeedingTime int64  `json:"seeding_time"`
	Comment     string `json:"comment"`
}

// Category is one value of the /api/v2/torrents/categories map.
type Category struct {
	Name     string `json:"name"`
	SavePath string `json:"savePath"`
}
