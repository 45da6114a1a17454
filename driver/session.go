package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

// DefaultPollInterval is how often Watch asks for progress
const DefaultPollInterval = time.Second

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("server returned %d: %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Session talks to a running download server
type Session struct {
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
}

// NewSession creates a session against baseURL. A nil client uses a default
// with no timeout, since a download request blocks until the job stops.
func NewSession(baseURL string, client *http.Client) *Session {
	if client == nil {
		client = &http.Client{}
	}
	return &Session{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       client,
		pollInterval: DefaultPollInterval,
	}
}

// SetPollInterval changes the Watch interval
func (s *Session) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.pollInterval = d
	}
}

// PlaylistInfo resolves a playlist on the server
func (s *Session) PlaylistInfo(ctx context.Context, playlistURL string) (*types.Playlist, error) {
	var resp struct {
		Playlist *types.Playlist `json:"playlist"`
	}
	if err := s.do(ctx, http.MethodPost, "/api/playlist/info", types.PlaylistInfoRequest{PlaylistURL: playlistURL}, &resp); err != nil {
		return nil, err
	}
	if resp.Playlist == nil {
		return nil, fmt.Errorf("response has no playlist")
	}
	return resp.Playlist, nil
}

// Download starts or resumes the job and blocks until it pauses or finishes
func (s *Session) Download(ctx context.Context, playlistURL string, resume bool) (*types.JobResult, error) {
	var result types.JobResult
	req := types.DownloadRequest{PlaylistURL: playlistURL, Resume: resume}
	if err := s.do(ctx, http.MethodPost, "/api/download", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stop asks the server to pause the job
func (s *Session) Stop(ctx context.Context) error {
	return s.do(ctx, http.MethodPost, "/api/stop", nil, nil)
}

// Progress fetches the current progress report
func (s *Session) Progress(ctx context.Context) (*types.ProgressReport, error) {
	var report types.ProgressReport
	if err := s.do(ctx, http.MethodGet, "/api/progress", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Watch polls progress, calling fn with every report, until the job is
// completed, failed or paused, or ctx is done. Poll errors are logged and skipped.
func (s *Session) Watch(ctx context.Context, fn func(types.ProgressReport)) (types.ProgressReport, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var last types.ProgressReport
	for {
		report, err := s.Progress(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			slog.Warn("Progress poll failed", "error", err)
		case err == nil:
			last = *report
			if fn != nil {
				fn(last)
			}
			if last.Status.IsTerminal() || last.Status == types.JobStatusPaused {
				return last, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error, Details: apiErr.Details}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
