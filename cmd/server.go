package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sohaibmokhliss/spotifyPLdownloader/config"
	"github.com/sohaibmokhliss/spotifyPLdownloader/handlers"
	"github.com/sohaibmokhliss/spotifyPLdownloader/middleware"
	"github.com/sohaibmokhliss/spotifyPLdownloader/storage"
)

// StartWebServer serves the API until ctx is cancelled. Cancelling ctx also
// cancels a running job, which leaves it paused.
func StartWebServer(ctx context.Context, cfg *config.Config) error {
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: NewRouter(ctx, app),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Web server starting", "port", cfg.Server.Port, "storage", cfg.Storage.Type)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter builds the gin engine. Jobs started through it run under ctx.
func NewRouter(ctx context.Context, app *App) *gin.Engine {
	cfg := app.Config

	downloadHandler := handlers.NewDownloadHandler(ctx, app.Controller, app.Hub)
	playlistHandler := handlers.NewPlaylistHandler(app.Resolver)
	// File routes only make sense when tracks land on this machine
	var fileHandler *handlers.FileHandler
	if local, ok := app.Storage.(*storage.LocalStorage); ok {
		fileHandler = handlers.NewFileHandler(app.Library, local.Dir())
	}
	historyHandler := handlers.NewHistoryHandler(app.History)
	healthHandler := handlers.NewHealthHandler(app.Controller, cfg.Storage.Type, cfg.Storage.OutputDir)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.Logging())
	r.Use(middleware.Security())

	setupRoutes(r, downloadHandler, playlistHandler, fileHandler, historyHandler, healthHandler)
	return r
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, downloadHandler *handlers.DownloadHandler, playlistHandler *handlers.PlaylistHandler, fileHandler *handlers.FileHandler, historyHandler *handlers.HistoryHandler, healthHandler *handlers.HealthHandler) {
	r.GET("/health", healthHandler.HealthCheck)

	// Downloaded tracks as attachments
	if fileHandler != nil {
		r.GET("/downloads/*filepath", fileHandler.DownloadFile)
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		apiGroup.POST("/playlist/info", playlistHandler.PlaylistInfo)

		// Job control
		apiGroup.POST("/download", downloadHandler.Download)
		apiGroup.POST("/stop", downloadHandler.Stop)
		apiGroup.GET("/progress", downloadHandler.Progress)

		// WebSocket endpoint for real-time progress
		apiGroup.GET("/ws/progress", downloadHandler.ProgressSocket)

		if fileHandler != nil {
			apiGroup.GET("/files", fileHandler.ListFiles)
			apiGroup.GET("/files/stream/*filepath", fileHandler.StreamFile)
		}

		apiGroup.GET("/history", historyHandler.Recent)
	}
}
