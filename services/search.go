package services

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

// VideoSearcher finds the video that best matches a track
type VideoSearcher interface {
	Search(ctx context.Context, track types.Track) (string, error)
}

// YouTubeSearcher queries the YouTube Data API v3
type YouTubeSearcher struct {
	service *youtube.Service
}

// NewYouTubeSearcher creates a searcher. endpoint overrides the API base URL
// when non-empty.
func NewYouTubeSearcher(ctx context.Context, apiKey, endpoint string, client *http.Client) (*YouTubeSearcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	if client != nil {
		opts = append(opts, option.WithHTTPClient(client))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}

	return &YouTubeSearcher{service: service}, nil
}

// SearchQueries returns the queries tried for track, best first
func SearchQueries(track types.Track) []string {
	base := fmt.Sprintf("%s %s", track.Name, track.Artist)
	return []string{base + " official audio", base}
}

// Search returns a watch URL for the first hit, or ErrVideoNotFound
func (y *YouTubeSearcher) Search(ctx context.Context, track types.Track) (string, error) {
	for _, query := range SearchQueries(track) {
		resp, err := y.service.Search.List([]string{"id"}).
			Q(query).
			Type("video").
			MaxResults(1).
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("youtube search failed: %w", err)
		}

		for _, item := range resp.Items {
			if item.Id != nil && item.Id.VideoId != "" {
				return "https://www.youtube.com/watch?v=" + item.Id.VideoId, nil
			}
		}
	}

	return "", ErrVideoNotFound
}
