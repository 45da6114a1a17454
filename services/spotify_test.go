package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

func newSpotifyServer(t *testing.T) *httptest.Server {
	var server *httptest.Server
	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})

	mux.HandleFunc("/v1/playlists/pl1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "pl1",
			"name":        "Road Trip",
			"description": "Long drives",
			"images":      []map[string]string{{"url": "https://img.test/cover.jpg"}},
		})
	})

	mux.HandleFunc("/v1/playlists/pl1/tracks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if r.URL.Query().Get("offset") == "" {
			w.Write([]byte(`{
				"items": [
					{"track": {"id": "t1", "name": "First", "artists": [{"name": "Band"}, {"name": "Guest"}], "album": {"name": "LP"}}},
					{"track": null},
					{"track": {"id": "", "name": "Local File", "is_local": true, "artists": [], "album": null}}
				],
				"next": "` + server.URL + `/v1/playlists/pl1/tracks?offset=3&limit=100"
			}`))
			return
		}
		w.Write([]byte(`{
			"items": [
				{"track": {"id": "t2", "name": "Second", "artists": [], "album": null}}
			],
			"next": null
		}`))
	})

	mux.HandleFunc("/v1/playlists/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestSpotifyResolver(t *testing.T) {
	server := newSpotifyServer(t)

	resolver, err := NewSpotifyResolver("id", "secret", WithSpotifyEndpoints(server.URL+"/token", server.URL+"/v1"))
	require.NoError(t, err)

	playlist, err := resolver.Resolve(context.Background(), "https://open.spotify.com/playlist/pl1")

	require.NoError(t, err)
	assert.Equal(t, "pl1", playlist.ID)
	assert.Equal(t, "Road Trip", playlist.Name)
	assert.Equal(t, "Long drives", playlist.Description)
	assert.Equal(t, "https://img.test/cover.jpg", playlist.Image)
	assert.Equal(t, 2, playlist.TrackCount)
	assert.Equal(t, []types.Track{
		{ID: "t1", Name: "First", Artist: "Band", Album: "LP"},
		{ID: "t2", Name: "Second", Artist: "Unknown", Album: "Unknown"},
	}, playlist.Tracks)
}

func TestSpotifyResolverNotFound(t *testing.T) {
	server := newSpotifyServer(t)

	resolver, err := NewSpotifyResolver("id", "secret", WithSpotifyEndpoints(server.URL+"/token", server.URL+"/v1"))
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "spotify:playlist:missing")
	assert.ErrorIs(t, err, ErrPlaylistNotFound)
}

func TestSpotifyResolverRequiresCredentials(t *testing.T) {
	_, err := NewSpotifyResolver("", "")
	assert.Error(t, err)
}
