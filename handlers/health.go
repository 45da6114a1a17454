package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sohaibmokhliss/spotifyPLdownloader/services"
)

const serviceName = "spotify-playlist-downloader"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	controller  services.JobController
	storageType string
	downloadDir string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(controller services.JobController, storageType, downloadDir string) *HealthHandler {
	return &HealthHandler{
		controller:  controller,
		storageType: storageType,
		downloadDir: downloadDir,
	}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus returns the status of the API
func (h *HealthHandler) APIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":           "Playlist downloader API is running",
		"job_status":        h.controller.Snapshot().Status,
		"storage":           h.storageType,
		"download_location": h.downloadDir,
	})
}
