// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package explorer reveals a torrent's content directory in the host's
// file manager. It only makes sense when the relay runs on the same
// machine as the qBittorrent daemon.
package explorer

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/achtbit/zwart/internal/qbittorrent"
)

type Service struct {
	client *qbittorrent.Client
}

func NewService(client *qbittorrent.Client) *Service {
	return &Service{client: client}
}

// Open resolves the torrent's on-disk location from its save path and first
// content file, then launches the platform file manager on it.
func (s *Service) Open(ctx context.Context, hash string) error {
	props, err := s.client.Properties(ctx, hash)
	if err != nil {
		return errors.Wrap(err, "get torrent properties")
	}

	files, err := s.client.Files(ctx, hash)
	if err != nil {
		return errors.Wrap(err, "get torrent files")
	}
	if len(files) == 0 {
		return errors.New("torrent has no files")
	}

	// Multi-file torrents live in a directory named after the first path
	// segment; single-file torrents sit directly in the save path.
	root := strings.SplitN(files[0].Name, "/", 2)[0]
	fullPath := filepath.Join(props.SavePath, root)

	return openPath(ctx, fullPath)
}

func openPath(ctx context.Context, path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "explorer", path)
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", path)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", path)
	}

	log.Debug().Str("path", path).Msg("opening in file manager")

	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "open %q: %s", path, strings.TrimSpace(string(output)))
	}
	return nil
}
