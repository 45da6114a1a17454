package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sohaibmokhliss/spotifyPLdownloader/services"
	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
	"github.com/sohaibmokhliss/spotifyPLdownloader/websocket"
)

// DownloadHandler handles the download job endpoints
type DownloadHandler struct {
	ctx        context.Context
	controller services.JobController
	reporter   *services.ProgressReporter
	hub        websocket.Hub
}

// NewDownloadHandler creates a new download handler. Jobs run under ctx
// rather than the request context, so a dropped client does not pause them.
func NewDownloadHandler(ctx context.Context, controller services.JobController, hub websocket.Hub) *DownloadHandler {
	return &DownloadHandler{
		ctx:        ctx,
		controller: controller,
		reporter:   services.NewProgressReporter(controller),
		hub:        hub,
	}
}

// Download starts or resumes the job and blocks until it pauses or finishes
func (h *DownloadHandler) Download(c *gin.Context) {
	var req types.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.controller.Start(h.ctx, req.PlaylistURL, req.Resume)
	if err != nil {
		status := startErrorStatus(err)
		if status >= http.StatusInternalServerError {
			slog.Error("Download failed", "playlist_url", req.PlaylistURL, "error", err)
		}
		c.JSON(status, gin.H{
			"error":   err.Error(),
			"details": errorDetails(err),
		})
		return
	}

	message := "Download completed"
	if result.Paused {
		message = "Download paused"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   message,
		"job_id":    result.JobID,
		"completed": result.Completed,
		"failed":    result.Failed,
		"total":     result.Total,
		"paused":    result.Paused,
	})
}

// Stop requests a cooperative stop; it is always accepted
func (h *DownloadHandler) Stop(c *gin.Context) {
	h.controller.Stop()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Stop requested",
		"status":  h.controller.Snapshot().Status,
	})
}

// Progress returns the current progress report
func (h *DownloadHandler) Progress(c *gin.Context) {
	c.JSON(http.StatusOK, h.reporter.Report())
}

// ProgressSocket streams progress reports over a WebSocket, starting with the
// current one
func (h *DownloadHandler) ProgressSocket(c *gin.Context) {
	conn, err := websocket.Upgrade(c.Writer, c.Request)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	client := websocket.NewClient(h.hub, conn)
	client.Push(websocket.NewProgressMessage("progress", h.reporter.Report()))
	h.hub.RegisterClient(client)

	client.StartPumps()
}

func startErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrAlreadyRunning), errors.Is(err, services.ErrNoPausedJob):
		return http.StatusConflict
	case errors.Is(err, services.ErrMissingPlaylistURL):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrControllerPanic):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// errorDetails returns the wrapped cause, if any
func errorDetails(err error) string {
	if cause := errors.Unwrap(err); cause != nil {
		return cause.Error()
	}
	return ""
}
