package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

const spotifyEmbedBase = "https://open.spotify.com"

// EmbedResolver reads a playlist from the public embed page, which needs no
// API credentials. The page carries its data as a __NEXT_DATA__ JSON blob.
type EmbedResolver struct {
	client  *http.Client
	baseURL string
}

// NewEmbedResolver creates an embed-page resolver; an empty baseURL uses
// open.spotify.com
func NewEmbedResolver(baseURL string, client *http.Client) *EmbedResolver {
	if baseURL == "" {
		baseURL = spotifyEmbedBase
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &EmbedResolver{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type embedData struct {
	Props struct {
		PageProps struct {
			State struct {
				Data struct {
					Entity *struct {
						Name     string `json:"name"`
						Subtitle string `json:"subtitle"`
						CoverArt struct {
							Sources []struct {
								URL string `json:"url"`
							} `json:"sources"`
						} `json:"coverArt"`
						TrackList []struct {
							URI      string `json:"uri"`
							Title    string `json:"title"`
							Subtitle string `json:"subtitle"`
						} `json:"trackList"`
					} `json:"entity"`
				} `json:"data"`
			} `json:"state"`
		} `json:"pageProps"`
	} `json:"props"`
}

func (e *EmbedResolver) Resolve(ctx context.Context, ref string) (*types.Playlist, error) {
	id, err := ExtractPlaylistID(ref)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/embed/playlist/%s", e.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; playlist-downloader)")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch embed page: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrPlaylistNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("embed page request failed with status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embed page: %w", err)
	}

	raw := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text())
	if raw == "" {
		return nil, fmt.Errorf("embed page has no playlist data")
	}

	var data embedData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to decode embed data: %w", err)
	}

	entity := data.Props.PageProps.State.Data.Entity
	if entity == nil {
		return nil, ErrPlaylistNotFound
	}

	playlist := &types.Playlist{
		ID:          id,
		Name:        entity.Name,
		Description: entity.Subtitle,
		Tracks:      []types.Track{},
	}
	if len(entity.CoverArt.Sources) > 0 {
		playlist.Image = entity.CoverArt.Sources[0].URL
	}

	for _, item := range entity.TrackList {
		if item.Title == "" {
			continue
		}
		playlist.Tracks = append(playlist.Tracks, types.Track{
			ID:     strings.TrimPrefix(item.URI, "spotify:track:"),
			Name:   item.Title,
			Artist: firstArtist(item.Subtitle),
			Album:  "Unknown",
		})
	}

	playlist.TrackCount = len(playlist.Tracks)
	return playlist, nil
}

// firstArtist picks the lead artist out of a comma separated credit line
func firstArtist(subtitle string) string {
	subtitle = strings.ReplaceAll(subtitle, "\u00a0", " ")
	artist, _, _ := strings.Cut(subtitle, ",")
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return "Unknown"
	}
	return artist
}
