// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/achtbit/zwart/internal/api"
	"github.com/achtbit/zwart/internal/buildinfo"
	"github.com/achtbit/zwart/internal/config"
	"github.com/achtbit/zwart/internal/domain"
	"github.com/achtbit/zwart/internal/metrics"
	"github.com/achtbit/zwart/internal/qbittorrent"
	"github.com/achtbit/zwart/internal/services/explorer"
)

func main() {
	config.InitDefaultLogger(buildinfo.Version)

	var rootCmd = &cobra.Command{
		Use:   "zwart",
		Short: "A lightweight qBittorrent web relay",
		Long: `zwart - a lightweight relay in front of a qBittorrent daemon,
serving a filtered, classified view of its torrent list.`,
	}

	rootCmd.Version = buildinfo.Version

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunVersionCommand(buildinfo.Version))
	rootCmd.AddCommand(RunGenerateConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunServeCommand() *cobra.Command {
	var (
		configDir string
		logPath   string
		pprofFlag bool
	)

	var command = &cobra.Command{
		Use:   "serve",
		Short: "Start the relay server",
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/zwart/ or %APPDATA%\\zwart\\). Can also be a direct path to a .toml file")
	command.Flags().StringVar(&logPath, "log-path", "", "log file path (default is stdout)")
	command.Flags().BoolVar(&pprofFlag, "pprof", false, "enable pprof server on :6060")

	command.Run = func(cmd *cobra.Command, args []string) {
		runServer(configDir, logPath, pprofFlag)
	}

	return command
}

func RunVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of zwart",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file without starting the server.

If no --config-dir is specified, uses the OS-specific default location:
- Linux/macOS: ~/.config/zwart/config.toml
- Windows: %APPDATA%\zwart\config.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var configPath string
			if configDir != "" {
				if strings.HasSuffix(strings.ToLower(configDir), ".toml") {
					configPath = configDir
				} else if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
					configPath = configDir
				} else {
					configPath = filepath.Join(configDir, "config.toml")
				}
			} else {
				configPath = filepath.Join(config.GetDefaultConfigDir(), "config.toml")
			}

			if _, err := os.Stat(configPath); err == nil {
				cmd.Printf("Configuration file already exists at: %s\n", configPath)
				cmd.Println("Skipping generation to avoid overwriting existing configuration.")
				return nil
			}

			if err := config.WriteDefaultConfig(configPath); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			cmd.Printf("Configuration file created successfully at: %s\n", configPath)
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (defaults to OS-specific location)")

	return command
}

func runServer(configDir, logPath string, pprofFlag bool) {
	cfg, err := config.New(configDir, buildinfo.Version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize configuration")
	}

	if logPath != "" {
		cfg.Config.LogPath = logPath
	}
	if pprofFlag {
		cfg.Config.PprofEnabled = true
	}

	cfg.ApplyLogConfig()

	log.Info().Str("version", buildinfo.Version).Msg("Starting zwart")
	log.Info().Str("upstream", cfg.Config.QbittorrentURL).Msg("Relaying to qBittorrent")

	upstreamURL := cfg.Config.QbittorrentURL
	cfg.RegisterReloadListener(func(reloaded *domain.Config) {
		if reloaded.QbittorrentURL != upstreamURL {
			log.Warn().Str("upstream", reloaded.QbittorrentURL).Msg("qbittorrentUrl changed, restart required to take effect")
		}
	})

	var collector *metrics.Collector
	if cfg.Config.MetricsEnabled {
		collector = metrics.NewCollector()
	}

	client := qbittorrent.NewClient(
		cfg.Config.QbittorrentURL,
		cfg.Config.QbittorrentUsername,
		cfg.Config.QbittorrentPassword,
		qbittorrent.WithMetrics(collector),
	)

	// Warm up the daemon session in the background so the first list
	// request does not pay the login cost. Failures here are tolerable;
	// requests log in lazily anyway.
	go func() {
		err := retry.Do(
			func() error { return client.Login(context.Background()) },
			retry.Attempts(3),
			retry.Delay(2*time.Second),
			retry.DelayType(retry.BackOffDelay),
		)
		if err != nil {
			log.Warn().Err(err).Msg("initial daemon login failed, will retry on demand")
		}
	}()

	sessionManager := scs.New()
	sessionManager.Store = memstore.New()
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Cookie.Name = "zwart_session"
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode

	explorerService := explorer.NewService(client)

	httpServer := api.NewServer(cfg, client, sessionManager, explorerService)

	errorChannel := make(chan error)
	serverReady := make(chan struct{}, 1)
	go func() {
		if err := httpServer.ListenAndServeReady(serverReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorChannel <- err
		}
	}()

	select {
	case <-serverReady:
	case err := <-errorChannel:
		log.Fatal().Err(err).Msg("failed to start HTTP server")
	}

	if cfg.Config.MetricsEnabled {
		go func() {
			metricsServer := metrics.NewServer(collector, cfg.Config.MetricsHost, cfg.Config.MetricsPort)
			errorChannel <- metricsServer.ListenAndServe()
		}()
	}

	if cfg.Config.PprofEnabled {
		go func() {
			log.Info().Msg("Starting pprof server on :6060")
			log.Info().Msg("Access profiling at: http://localhost:6060/debug/pprof/")
			if err := http.ListenAndServe(":6060", nil); err != nil {
				log.Error().Err(err).Msg("Profiling server failed")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Msgf("got signal %v, shutting down server", sig.String())
	case err := <-errorChannel:
		log.Error().Err(err).Msg("got unexpected error from server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client.Logout(ctx)

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("got error during graceful http shutdown")
		os.Exit(1)
	}
}
