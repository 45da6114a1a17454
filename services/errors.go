package services

import (
	"errors"
	"fmt"

	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

var (
	ErrAlreadyRunning     = errors.New("a download job is already running")
	ErrNoPausedJob        = errors.New("no paused job to resume")
	ErrMissingPlaylistURL = errors.New("playlist URL is required")
	ErrPlaylistNotFound   = errors.New("playlist not found")
	ErrVideoNotFound      = errors.New("no matching video found")
	ErrControllerPanic    = errors.New("download job crashed")
)

// TrackError is a single-track failure carrying its reason kind
type TrackError struct {
	Kind types.ReasonKind
	Err  error
}

func (e *TrackError) Error() string {
	if e.Err == nil {
		return e.Kind.Text()
	}
	return fmt.Sprintf("%s: %v", e.Kind.Text(), e.Err)
}

func (e *TrackError) Unwrap() error {
	return e.Err
}

func newTrackError(kind types.ReasonKind, err error) *TrackError {
	return &TrackError{Kind: kind, Err: err}
}

// failureFor converts a download error into the recorded failure entry
func failureFor(label string, err error) types.TrackFailure {
	var trackErr *TrackError
	if errors.As(err, &trackErr) {
		return types.TrackFailure{Track: label, Reason: trackErr.Kind.Text(), Kind: trackErr.Kind}
	}
	return types.TrackFailure{Track: label, Reason: "download failed"}
}
