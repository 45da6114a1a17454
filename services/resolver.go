package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

// PlaylistResolver turns a playlist reference into its ordered track list
type PlaylistResolver interface {
	Resolve(ctx context.Context, ref string) (*types.Playlist, error)
}

var playlistIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// ExtractPlaylistID accepts a playlist URL, an embed URL, a spotify: URI or a
// bare id and returns the id
func ExtractPlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrMissingPlaylistURL
	}

	if rest, ok := strings.CutPrefix(ref, "spotify:playlist:"); ok {
		return checkPlaylistID(rest)
	}

	if strings.Contains(ref, "/") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("invalid playlist URL %q: %w", ref, err)
		}

		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i < len(segments)-1; i++ {
			if segments[i] == "playlist" {
				return checkPlaylistID(segments[i+1])
			}
		}
		return "", fmt.Errorf("no playlist id in %q", ref)
	}

	return checkPlaylistID(ref)
}

func checkPlaylistID(id string) (string, error) {
	if !playlistIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid playlist id %q", id)
	}
	return id, nil
}

// CompositeResolver tries each resolver in order and returns the first success
type CompositeResolver struct {
	resolvers []PlaylistResolver
}

// NewCompositeResolver creates a resolver chain
func NewCompositeResolver(resolvers ...PlaylistResolver) *CompositeResolver {
	return &CompositeResolver{resolvers: resolvers}
}

func (r *CompositeResolver) Resolve(ctx context.Context, ref string) (*types.Playlist, error) {
	if len(r.resolvers) == 0 {
		return nil, errors.New("no playlist resolvers configured")
	}

	var errs []error
	for _, resolver := range r.resolvers {
		playlist, err := resolver.Resolve(ctx, ref)
		if err == nil {
			return playlist, nil
		}
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, errors.Join(errs...)
}
