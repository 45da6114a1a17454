package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

// AudioConverter turns a video URL into a downloadable MP3 URL
type AudioConverter interface {
	Convert(ctx context.Context, videoURL string) (string, error)
}

// RapidAPIConverter uses a RapidAPI YouTube-to-MP3 service
type RapidAPIConverter struct {
	client  *http.Client
	baseURL string
	key     string
	host    string
}

// NewRapidAPIConverter creates a converter for host. baseURL defaults to
// https://<host>.
func NewRapidAPIConverter(key, host, baseURL string, client *http.Client) *RapidAPIConverter {
	if baseURL == "" {
		baseURL = "https://" + host
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &RapidAPIConverter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		host:    host,
	}
}

type conversionResponse struct {
	DownloadURL string `json:"download_url"`
	Link        string `json:"link"`
	URL         string `json:"url"`
}

func (r *RapidAPIConverter) Convert(ctx context.Context, videoURL string) (string, error) {
	endpoint := fmt.Sprintf("%s/download?url=%s", r.baseURL, url.QueryEscape(videoURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", r.key)
	req.Header.Set("x-rapidapi-host", r.host)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", newTrackError(types.ReasonNetwork, fmt.Errorf("conversion request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", newTrackError(types.ReasonNetwork, fmt.Errorf("conversion request failed with status: %d", resp.StatusCode))
	}

	var result conversionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", newTrackError(types.ReasonEncoding, fmt.Errorf("failed to decode conversion response: %w", err))
	}

	for _, link := range []string{result.DownloadURL, result.Link, result.URL} {
		if link != "" {
			return link, nil
		}
	}

	return "", newTrackError(types.ReasonEncoding, fmt.Errorf("conversion response has no download link"))
}
