package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohaibmokhliss/spotifyPLdownloader/storage"
	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

type stubSearcher struct {
	url string
	err error
}

func (s *stubSearcher) Search(context.Context, types.Track) (string, error) {
	return s.url, s.err
}

type stubConverter struct {
	url string
	err error
}

func (c *stubConverter) Convert(context.Context, string) (string, error) {
	return c.url, c.err
}

type failingStorage struct{}

func (failingStorage) Save(context.Context, string, io.Reader) (string, error) {
	return "", errors.New("disk full")
}

func (failingStorage) Close() error { return nil }

// mp3Frames is an untagged payload starting with an MPEG frame header
func mp3Frames() []byte {
	data := make([]byte, 1024)
	copy(data, []byte{0xFF, 0xFB, 0x90, 0x64})
	return data
}

func newMediaServer(t *testing.T, status int, body []byte) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTrackDownloaderSavesTrack(t *testing.T) {
	media := newMediaServer(t, http.StatusOK, mp3Frames())
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	downloader := NewTrackDownloader(&stubSearcher{url: "https://yt.test/v"}, &stubConverter{url: media.URL + "/a.mp3"}, store, nil, 0)
	err = downloader.Download(context.Background(), types.Track{Name: "Back: In Black?", Artist: "AC/DC"})

	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "ACDC - Back In Black.mp3"))
	require.NoError(t, err)
	assert.Equal(t, mp3Frames(), data)
}

func TestTrackDownloaderFailureKinds(t *testing.T) {
	ok := newMediaServer(t, http.StatusOK, mp3Frames())
	html := newMediaServer(t, http.StatusOK, []byte("<!DOCTYPE html><html><body>"+strings.Repeat("x", 300)+"</body></html>"))
	short := newMediaServer(t, http.StatusOK, []byte{0xFF, 0xFB})
	missing := newMediaServer(t, http.StatusNotFound, nil)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name      string
		searcher  VideoSearcher
		converter AudioConverter
		store     storage.Storage
		want      types.ReasonKind
	}{
		{"no video", &stubSearcher{err: ErrVideoNotFound}, &stubConverter{}, store, types.ReasonNotFound},
		{"search outage", &stubSearcher{err: errors.New("quota exceeded")}, &stubConverter{}, store, types.ReasonNetwork},
		{"converter outage", &stubSearcher{url: "v"}, &stubConverter{err: errors.New("dial tcp")}, store, types.ReasonNetwork},
		{"converter no link", &stubSearcher{url: "v"}, &stubConverter{err: newTrackError(types.ReasonEncoding, errors.New("no link"))}, store, types.ReasonEncoding},
		{"media 404", &stubSearcher{url: "v"}, &stubConverter{url: missing.URL}, store, types.ReasonNetwork},
		{"html page", &stubSearcher{url: "v"}, &stubConverter{url: html.URL}, store, types.ReasonEncoding},
		{"truncated", &stubSearcher{url: "v"}, &stubConverter{url: short.URL}, store, types.ReasonEncoding},
		{"storage", &stubSearcher{url: "v"}, &stubConverter{url: ok.URL}, failingStorage{}, types.ReasonStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			downloader := NewTrackDownloader(tt.searcher, tt.converter, tt.store, http.DefaultClient, 0)

			err := downloader.Download(context.Background(), types.Track{Name: "Song", Artist: "Band"})

			var trackErr *TrackError
			require.True(t, errors.As(err, &trackErr), "expected TrackError, got %v", err)
			assert.Equal(t, tt.want, trackErr.Kind)
			assert.Equal(t, tt.want.Text(), failureFor("Band - Song", err).Reason)
		})
	}
}

func TestValidateAudio(t *testing.T) {
	id3 := append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), make([]byte, 512)...)

	assert.NoError(t, validateAudio(mp3Frames()))
	assert.NoError(t, validateAudio(id3))
	assert.ErrorIs(t, validateAudio([]byte("tiny")), ErrEmptyAudio)
	assert.ErrorIs(t, validateAudio(bytes.Repeat([]byte("a"), 512)), ErrNotAudio)
	assert.ErrorIs(t, validateAudio(append([]byte(`{"error":"expired"}`), make([]byte, 512)...)), ErrNotAudio)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AC/DC - Back: In Black?.mp3", "ACDC - Back In Black.mp3"},
		{`a<b>c"d|e*f\g.mp3`, "abcdefg.mp3"},
		{"  padded  .mp3", "padded.mp3"},
		{"Mr. Brightside", "Mr. Brightside"},
		{"???.mp3", "track.mp3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in))
	}

	long := SanitizeFilename(strings.Repeat("é", 300) + ".mp3")
	assert.Equal(t, maxFilenameLength, utf8.RuneCountInString(long))
	assert.True(t, strings.HasSuffix(long, ".mp3"))
}
