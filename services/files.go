package services

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"

	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

var (
	ErrPathTraversal = errors.New("path traversal not allowed")
	ErrAbsolutePath  = errors.New("absolute paths not allowed")
	ErrEmptyPath     = errors.New("empty path not allowed")
)

// Library lists and validates downloaded audio files
type Library interface {
	ScanAudioFiles(rootPath string) ([]types.AudioFile, error)
	ExtractAudioMetadata(filePath string) *types.AudioMetadata
	ValidateFilePath(path string) error
	GetContentType(filePath string) string
}

type library struct{}

// NewLibrary creates a new file library
func NewLibrary() Library {
	return &library{}
}

// ScanAudioFiles walks rootPath for MP3 and FLAC files, sorted by path. A
// missing root yields an empty list.
func (l *library) ScanAudioFiles(rootPath string) ([]types.AudioFile, error) {
	files := []types.AudioFile{}

	if _, err := os.Stat(rootPath); os.IsNotExist(err) {
		return files, nil
	}

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			slog.Warn("Error accessing path", "path", path, "error", err)
			return nil // Continue walking, don't fail entire scan
		}

		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".mp3" && ext != ".flac" {
			return nil
		}

		relativePath, err := filepath.Rel(rootPath, path)
		if err != nil {
			relativePath = path
		}

		files = append(files, types.AudioFile{
			Filename: info.Name(),
			Path:     filepath.ToSlash(relativePath),
			Size:     info.Size(),
			Format:   strings.TrimPrefix(ext, "."),
			Metadata: l.ExtractAudioMetadata(path),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// GetContentType returns the appropriate MIME type for an audio file
func (l *library) GetContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".flac":
		return "audio/flac"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// ExtractAudioMetadata reads tags, filling gaps from the filename
func (l *library) ExtractAudioMetadata(filePath string) *types.AudioMetadata {
	fallback := metadataFromFilename(filePath)

	file, err := os.Open(filePath)
	if err != nil {
		slog.Warn("Could not open audio file", "path", filePath, "error", err)
		return fallback
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		// Untagged files are normal for converter output
		slog.Debug("No audio tags", "path", filePath, "error", err)
		return fallback
	}

	metadata := &types.AudioMetadata{
		Title:  meta.Title(),
		Artist: meta.Artist(),
		Album:  meta.Album(),
	}
	if metadata.Title == "" {
		metadata.Title = fallback.Title
	}
	if metadata.Artist == "" {
		metadata.Artist = fallback.Artist
	}
	return metadata
}

// metadataFromFilename parses the "Artist - Title.ext" naming used for saved tracks
func metadataFromFilename(filePath string) *types.AudioMetadata {
	name := filepath.Base(filePath)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	if artist, title, ok := strings.Cut(name, " - "); ok {
		return &types.AudioMetadata{Title: strings.TrimSpace(title), Artist: strings.TrimSpace(artist)}
	}
	return &types.AudioMetadata{Title: name}
}

// ValidateFilePath checks for path traversal attempts and other security issues
func (l *library) ValidateFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}

	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`) || filepath.IsAbs(path) {
		return ErrAbsolutePath
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return ErrPathTraversal
		}
	}

	return nil
}
