package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sohaibmokhliss/spotifyPLdownloader/cmd"
	"github.com/sohaibmokhliss/spotifyPLdownloader/config"
)

func main() {
	var (
		server      bool
		port        string
		configPath  string
		playlistURL string
		remoteURL   string
	)

	flag.BoolVar(&server, "server", false, "Start in web server mode")
	flag.StringVar(&port, "port", "", "Port for web server mode (overrides config)")
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flag.StringVar(&playlistURL, "playlist", "", "Spotify playlist URL to download")
	flag.StringVar(&remoteURL, "remote", "", "Base URL of a running server to drive instead of downloading in-process")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if port != "" {
		cfg.Server.Port = port
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	// Server mode takes precedence
	if server {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := cmd.StartWebServer(ctx, cfg); err != nil {
			slog.Error("Server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	if playlistURL == "" {
		flag.Usage()
		os.Exit(2)
	}

	// The CLI handles SIGINT itself to pause instead of exit
	err = cmd.RunCLI(context.Background(), cfg, cmd.CLIOptions{
		PlaylistURL: playlistURL,
		RemoteURL:   remoteURL,
	})
	if err != nil {
		slog.Error("Download failed", "error", err)
		os.Exit(1)
	}
}
