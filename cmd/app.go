package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sohaibmokhliss/spotifyPLdownloader/config"
	"github.com/sohaibmokhliss/spotifyPLdownloader/services"
	"github.com/sohaibmokhliss/spotifyPLdownloader/storage"
	"github.com/sohaibmokhliss/spotifyPLdownloader/websocket"
)

// App holds the wired services shared by the server and the CLI
type App struct {
	Config     *config.Config
	Controller services.JobController
	Resolver   services.PlaylistResolver
	History    services.HistoryStore
	Library    services.Library
	Hub        websocket.Hub
	Storage    storage.Storage
}

// NewApp builds every collaborator from cfg and starts the progress hub
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	history, err := services.NewHistoryStore(cfg.History)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}

	searcher, err := services.NewYouTubeSearcher(ctx, cfg.YouTube.APIKey, "", nil)
	if err != nil {
		store.Close()
		return nil, err
	}

	converter := services.NewRapidAPIConverter(cfg.RapidAPI.Key, cfg.RapidAPI.Host, "", nil)
	downloader := services.NewTrackDownloader(searcher, converter, store, nil, cfg.Download.RequestTimeout)

	hub := websocket.NewHub()
	go hub.Run()

	resolver := NewResolver(cfg)
	controller := services.NewJobController(services.ControllerDeps{
		Resolver:   resolver,
		Downloader: downloader,
		History:    history,
		Hub:        hub,
		TrackDelay: cfg.Download.TrackDelay,
	})

	return &App{
		Config:     cfg,
		Controller: controller,
		Resolver:   resolver,
		History:    history,
		Library:    services.NewLibrary(),
		Hub:        hub,
		Storage:    store,
	}, nil
}

// NewResolver prefers the Web API when credentials are configured and falls
// back to the public embed page
func NewResolver(cfg *config.Config) services.PlaylistResolver {
	var resolvers []services.PlaylistResolver

	spotify, err := services.NewSpotifyResolver(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	if err != nil {
		slog.Warn("Spotify API disabled, using embed pages only", "error", err)
	} else {
		resolvers = append(resolvers, spotify)
	}

	resolvers = append(resolvers, services.NewEmbedResolver("", nil))
	return services.NewCompositeResolver(resolvers...)
}

// Close releases the hub, storage and history connections
func (a *App) Close() error {
	a.Hub.Close()

	var errs []error
	if err := a.Storage.Close(); err != nil {
		errs = append(errs, err)
	}
	if closer, ok := a.History.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
