package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sohaibmokhliss/spotifyPLdownloader/services"
	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

// PlaylistHandler serves playlist lookups
type PlaylistHandler struct {
	resolver services.PlaylistResolver
}

// NewPlaylistHandler creates a new playlist handler
func NewPlaylistHandler(resolver services.PlaylistResolver) *PlaylistHandler {
	return &PlaylistHandler{resolver: resolver}
}

// PlaylistInfo resolves a playlist without touching the job state
func (h *PlaylistHandler) PlaylistInfo(c *gin.Context) {
	var req types.PlaylistInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PlaylistURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Playlist URL is required",
		})
		return
	}

	playlist, err := h.resolver.Resolve(c.Request.Context(), req.PlaylistURL)
	if err != nil {
		slog.Warn("Playlist lookup failed", "playlist_url", req.PlaylistURL, "error", err)

		status := http.StatusBadGateway
		if errors.Is(err, services.ErrMissingPlaylistURL) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":   "failed to fetch playlist",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"playlist": playlist,
	})
}
