package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dhowden/tag"

	"github.com/sohaibmokhliss/spotifyPLdownloader/storage"
	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

const (
	maxFilenameLength = 200
	maxAudioSize      = 100 << 20
	minAudioSize      = 128
)

var (
	ErrEmptyAudio = errors.New("audio payload too small")
	ErrNotAudio   = errors.New("payload is not audio")
)

// TrackDownloader fetches one track and stores it
type TrackDownloader interface {
	Download(ctx context.Context, track types.Track) error
}

type trackDownloader struct {
	searcher  VideoSearcher
	converter AudioConverter
	storage   storage.Storage
	client    *http.Client
}

// NewTrackDownloader wires search, conversion and storage together. A nil
// client gets a default with timeout.
func NewTrackDownloader(searcher VideoSearcher, converter AudioConverter, store storage.Storage, client *http.Client, timeout time.Duration) TrackDownloader {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &trackDownloader{
		searcher:  searcher,
		converter: converter,
		storage:   store,
		client:    client,
	}
}

// Download searches, converts, validates and saves a track. Failures are
// returned as *TrackError.
func (d *trackDownloader) Download(ctx context.Context, track types.Track) error {
	videoURL, err := d.searcher.Search(ctx, track)
	if err != nil {
		if errors.Is(err, ErrVideoNotFound) {
			return newTrackError(types.ReasonNotFound, err)
		}
		return newTrackError(types.ReasonNetwork, err)
	}
	slog.Debug("Video found", "track", track.Label(), "url", videoURL)

	mediaURL, err := d.converter.Convert(ctx, videoURL)
	if err != nil {
		var trackErr *TrackError
		if errors.As(err, &trackErr) {
			return trackErr
		}
		return newTrackError(types.ReasonNetwork, err)
	}

	data, err := d.fetch(ctx, mediaURL)
	if err != nil {
		return newTrackError(types.ReasonNetwork, err)
	}

	if err := validateAudio(data); err != nil {
		return newTrackError(types.ReasonEncoding, err)
	}

	filename := SanitizeFilename(track.Label() + ".mp3")
	location, err := d.storage.Save(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return newTrackError(types.ReasonStorage, err)
	}

	slog.Debug("Track saved", "track", track.Label(), "location", location, "bytes", len(data))
	return nil
}

func (d *trackDownloader) fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read media: %w", err)
	}
	if len(data) > maxAudioSize {
		return nil, fmt.Errorf("media exceeds %d bytes", maxAudioSize)
	}
	return data, nil
}

// validateAudio rejects error pages and truncated bodies. Untagged MP3 output
// is recognised by its frame sync.
func validateAudio(data []byte) error {
	if len(data) < minAudioSize {
		return ErrEmptyAudio
	}

	head := bytes.ToLower(bytes.TrimSpace(data[:minAudioSize]))
	if bytes.HasPrefix(head, []byte("<")) || bytes.HasPrefix(head, []byte("{")) {
		return ErrNotAudio
	}

	if _, fileType, err := tag.Identify(bytes.NewReader(data)); err == nil && fileType != tag.UnknownFileType {
		return nil
	}

	if bytes.HasPrefix(data, []byte("ID3")) {
		return nil
	}

	// MPEG audio frame sync: 11 set bits
	if data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
		return nil
	}

	return ErrNotAudio
}

// SanitizeFilename strips characters that are invalid in filenames and caps
// the length at 200 characters, keeping the extension
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	ext := ""
	if i := strings.LastIndex(name, "."); i >= 0 && len(name)-i <= 5 {
		ext = name[i:]
		name = name[:i]
	}

	limit := maxFilenameLength - utf8.RuneCountInString(ext)
	if utf8.RuneCountInString(name) > limit {
		name = string([]rune(name)[:limit])
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "track"
	}
	return name + ext
}
