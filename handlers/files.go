package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sohaibmokhliss/spotifyPLdownloader/services"
)

var errOutsideRoot = errors.New("path traversal not allowed")

// FileHandler serves the downloaded track library
type FileHandler struct {
	library services.Library
	root    string
}

// NewFileHandler creates a new file handler rooted at the download directory
func NewFileHandler(library services.Library, root string) *FileHandler {
	return &FileHandler{
		library: library,
		root:    root,
	}
}

// ListFiles returns a list of all downloaded audio files
func (h *FileHandler) ListFiles(c *gin.Context) {
	audioFiles, err := h.library.ScanAudioFiles(h.root)
	if err != nil {
		slog.Error("Error scanning audio files", "root", h.root, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to scan files",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"files": audioFiles,
		"count": len(audioFiles),
	})
}

// DownloadFile sends a track as an attachment
func (h *FileHandler) DownloadFile(c *gin.Context) {
	fullPath, ok := h.resolve(c)
	if !ok {
		return
	}

	c.FileAttachment(fullPath, filepath.Base(fullPath))
}

// StreamFile serves a track inline, with range support for seeking
func (h *FileHandler) StreamFile(c *gin.Context) {
	fullPath, ok := h.resolve(c)
	if !ok {
		return
	}

	c.Header("Content-Type", h.library.GetContentType(fullPath))
	c.Header("Cache-Control", "public, max-age=3600")
	c.File(fullPath)
}

// resolve validates the *filepath parameter and maps it into the download
// directory. It writes the error response itself.
func (h *FileHandler) resolve(c *gin.Context) (string, bool) {
	requestedPath := strings.TrimPrefix(c.Param("filepath"), "/")

	if err := h.library.ValidateFilePath(requestedPath); err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "path security violation",
			"details": err.Error(),
		})
		return "", false
	}

	ext := strings.ToLower(filepath.Ext(requestedPath))
	if ext != ".flac" && ext != ".mp3" {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "file extension not allowed",
			"details": "only .flac and .mp3 files can be downloaded",
		})
		return "", false
	}

	fullPath, err := withinRoot(h.root, requestedPath)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "path security violation",
			"details": err.Error(),
		})
		return "", false
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "file not found",
				"path":  requestedPath,
			})
			return "", false
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "file access error",
			"details": err.Error(),
		})
		return "", false
	}

	if info.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "path is a directory, not a file",
		})
		return "", false
	}

	return fullPath, true
}

// withinRoot joins rel onto root and checks the result stays inside root
func withinRoot(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(filepath.Join(absRoot, rel))
	if err != nil {
		return "", err
	}

	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", errOutsideRoot
	}
	return absPath, nil
}
