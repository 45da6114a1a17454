package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sohaibmokhliss/spotifyPLdownloader/services"
)

const defaultHistoryLimit = 50

// HistoryHandler serves the per-track download log
type HistoryHandler struct {
	history services.HistoryStore
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history services.HistoryStore) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// Recent returns the newest entries, ?limit=N
func (h *HistoryHandler) Recent(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid limit",
				"details": "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	entries, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to read history",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}
