package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
	"github.com/sohaibmokhliss/spotifyPLdownloader/websocket"
)

var errTimeout = errors.New("timeout")

type fakeResolver struct {
	mu       sync.Mutex
	playlist *types.Playlist
	err      error
	panicMsg string
	calls    int
}

func (f *fakeResolver) Resolve(_ context.Context, ref string) (*types.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	p := *f.playlist
	p.Tracks = append([]types.Track(nil), f.playlist.Tracks...)
	return &p, nil
}

func playlistOf(names ...string) *types.Playlist {
	p := &types.Playlist{ID: "pl1", Name: "Test Mix"}
	for _, name := range names {
		p.Tracks = append(p.Tracks, types.Track{Name: name, Artist: "Artist"})
	}
	p.TrackCount = len(p.Tracks)
	return p
}

func label(name string) string {
	return "Artist - " + name
}

// fakeDownloader returns scripted outcomes by track name and records calls.
// before runs ahead of each download, outside any controller lock.
type fakeDownloader struct {
	mu       sync.Mutex
	outcomes map[string]error
	calls    []string
	before   func(ctx context.Context, track types.Track) error
}

func (f *fakeDownloader) Download(ctx context.Context, track types.Track) error {
	f.mu.Lock()
	f.calls = append(f.calls, track.Name)
	before := f.before
	f.mu.Unlock()

	if before != nil {
		if err := before(ctx, track); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcomes[track.Name]
}

func (f *fakeDownloader) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeHub struct {
	mu       sync.Mutex
	messages []types.ProgressMessage
}

func (h *fakeHub) Run()                               {}
func (h *fakeHub) Close()                             {}
func (h *fakeHub) RegisterClient(*websocket.Client)   {}
func (h *fakeHub) UnregisterClient(*websocket.Client) {}
func (h *fakeHub) ClientCount() int                   { return 0 }

func (h *fakeHub) BroadcastProgress(msgType string, report types.ProgressReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, websocket.NewProgressMessage(msgType, report))
}

func (h *fakeHub) Messages() []types.ProgressMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]types.ProgressMessage(nil), h.messages...)
}

func networkFailure() error {
	return newTrackError(types.ReasonNetwork, errTimeout)
}
