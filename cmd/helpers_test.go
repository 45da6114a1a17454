package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/sohaibmokhliss/spotifyPLdownloader/config"
	"github.com/sohaibmokhliss/spotifyPLdownloader/services"
	"github.com/sohaibmokhliss/spotifyPLdownloader/storage"
	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
	ws "github.com/sohaibmokhliss/spotifyPLdownloader/websocket"
)

// TestHelper provides utilities for testing the HTTP server
type TestHelper struct {
	Server      *httptest.Server
	Router      *gin.Engine
	App         *App
	DownloadDir string
	Resolver    *stubResolver
	Downloader  *stubDownloader
}

// NewTestHelper wires an App around stub collaborators
func NewTestHelper(t *testing.T, resolver *stubResolver, downloader *stubDownloader) *TestHelper {
	gin.SetMode(gin.TestMode)

	downloadDir := t.TempDir()
	store, err := storage.NewLocalStorage(downloadDir)
	require.NoError(t, err)

	cfg := &config.Config{
		Server:  config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}},
		Storage: config.StorageConfig{Type: "local", OutputDir: downloadDir},
	}

	hub := ws.NewHub()
	go hub.Run()

	history := services.NewMemoryHistory(100)
	app := &App{
		Config: cfg,
		Controller: services.NewJobController(services.ControllerDeps{
			Resolver:   resolver,
			Downloader: downloader,
			History:    history,
			Hub:        hub,
		}),
		Resolver: resolver,
		History:  history,
		Library:  services.NewLibrary(),
		Hub:      hub,
		Storage:  store,
	}

	router := NewRouter(context.Background(), app)
	server := httptest.NewServer(router)

	h := &TestHelper{
		Server:      server,
		Router:      router,
		App:         app,
		DownloadDir: downloadDir,
		Resolver:    resolver,
		Downloader:  downloader,
	}
	t.Cleanup(h.Cleanup)
	return h
}

// Cleanup cleans up test resources
func (h *TestHelper) Cleanup() {
	h.Server.Close()
	h.App.Close()
}

// MakeRequest sends a request through the router without a network hop
func (h *TestHelper) MakeRequest(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	h.Router.ServeHTTP(w, req)
	return w
}

// GetJSON performs a GET and decodes the response into target
func (h *TestHelper) GetJSON(t *testing.T, path string, target any) *httptest.ResponseRecorder {
	w := h.MakeRequest(t, http.MethodGet, path, nil)
	if target != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), target))
	}
	return w
}

// PostJSON performs a POST and decodes the response into target
func (h *TestHelper) PostJSON(t *testing.T, path string, requestBody, target any) *httptest.ResponseRecorder {
	w := h.MakeRequest(t, http.MethodPost, path, requestBody)
	if target != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), target))
	}
	return w
}

// ConnectWebSocket dials a WebSocket endpoint on the test server
func (h *TestHelper) ConnectWebSocket(t *testing.T, path string) *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(h.Server.URL, "http") + path

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// CreateTestFile writes a file under the download directory
func (h *TestHelper) CreateTestFile(t *testing.T, relativePath string, content []byte) {
	fullPath := filepath.Join(h.DownloadDir, relativePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
	require.NoError(t, os.WriteFile(fullPath, content, 0644))
}

type stubResolver struct {
	playlist *types.Playlist
	err      error
}

func (s *stubResolver) Resolve(_ context.Context, ref string) (*types.Playlist, error) {
	if s.err != nil {
		return nil, s.err
	}
	p := *s.playlist
	p.Tracks = append([]types.Track(nil), s.playlist.Tracks...)
	return &p, nil
}

func newPlaylist(names ...string) *types.Playlist {
	p := &types.Playlist{ID: "pl1", Name: "Road Trip"}
	for _, name := range names {
		p.Tracks = append(p.Tracks, types.Track{Name: name, Artist: "Band", Album: "LP"})
	}
	p.TrackCount = len(p.Tracks)
	return p
}

// stubDownloader fails tracks listed in fail. With a gate, the first download
// blocks until the gate is closed.
type stubDownloader struct {
	fail    map[string]error
	gate    chan struct{}
	started chan struct{}
	once    sync.Once
}

func newGatedDownloader() *stubDownloader {
	return &stubDownloader{gate: make(chan struct{}), started: make(chan struct{})}
}

func (d *stubDownloader) Download(ctx context.Context, track types.Track) error {
	if d.gate != nil {
		first := false
		d.once.Do(func() { first = true })
		if first {
			close(d.started)
			select {
			case <-d.gate:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if err, ok := d.fail[track.Name]; ok {
		return err
	}
	return nil
}
