package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyAPIBase  = "https://api.spotify.com/v1"
)

// SpotifyResolver reads playlists from the Spotify Web API using the
// client-credentials flow
type SpotifyResolver struct {
	client  *http.Client
	apiBase string
}

// SpotifyOption customizes a SpotifyResolver
type SpotifyOption func(*spotifyOptions)

type spotifyOptions struct {
	tokenURL string
	apiBase  string
	base     *http.Client
}

// WithSpotifyEndpoints points the resolver at alternate token and API URLs
func WithSpotifyEndpoints(tokenURL, apiBase string) SpotifyOption {
	return func(o *spotifyOptions) {
		o.tokenURL = tokenURL
		o.apiBase = apiBase
	}
}

// WithSpotifyHTTPClient sets the client used for token and API requests
func WithSpotifyHTTPClient(client *http.Client) SpotifyOption {
	return func(o *spotifyOptions) {
		o.base = client
	}
}

// NewSpotifyResolver creates a resolver authenticated with clientID/clientSecret
func NewSpotifyResolver(clientID, clientSecret string, opts ...SpotifyOption) (*SpotifyResolver, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("spotify client id and secret are required")
	}

	o := spotifyOptions{tokenURL: spotifyTokenURL, apiBase: spotifyAPIBase, base: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     o.tokenURL,
	}

	// The token source caches and refreshes the access token
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, o.base)

	return &SpotifyResolver{
		client:  cfg.Client(ctx),
		apiBase: o.apiBase,
	}, nil
}

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Images      []spotifyImage `json:"images"`
}

type spotifyTrackPage struct {
	Items []struct {
		Track *struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			IsLocal bool   `json:"is_local"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album *struct {
				Name string `json:"name"`
			} `json:"album"`
		} `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

// Resolve fetches playlist metadata and every page of its tracks
func (s *SpotifyResolver) Resolve(ctx context.Context, ref string) (*types.Playlist, error) {
	id, err := ExtractPlaylistID(ref)
	if err != nil {
		return nil, err
	}

	var meta spotifyPlaylist
	metaURL := fmt.Sprintf("%s/playlists/%s?fields=%s", s.apiBase, id, url.QueryEscape("id,name,description,images"))
	if err := s.getJSON(ctx, metaURL, &meta); err != nil {
		return nil, err
	}

	playlist := &types.Playlist{
		ID:          id,
		Name:        meta.Name,
		Description: meta.Description,
		Tracks:      []types.Track{},
	}
	if len(meta.Images) > 0 {
		playlist.Image = meta.Images[0].URL
	}

	next := fmt.Sprintf("%s/playlists/%s/tracks?limit=100", s.apiBase, id)
	for next != "" {
		var page spotifyTrackPage
		if err := s.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			// Removed or unavailable entries come back as null
			if item.Track == nil || item.Track.IsLocal || item.Track.Name == "" {
				continue
			}

			track := types.Track{ID: item.Track.ID, Name: item.Track.Name, Artist: "Unknown", Album: "Unknown"}
			if len(item.Track.Artists) > 0 && item.Track.Artists[0].Name != "" {
				track.Artist = item.Track.Artists[0].Name
			}
			if item.Track.Album != nil && item.Track.Album.Name != "" {
				track.Album = item.Track.Album.Name
			}
			playlist.Tracks = append(playlist.Tracks, track)
		}

		next = page.Next
	}

	playlist.TrackCount = len(playlist.Tracks)
	return playlist, nil
}

func (s *SpotifyResolver) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("spotify request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrPlaylistNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("spotify request failed with status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode spotify response: %w", err)
	}
	return nil
}
