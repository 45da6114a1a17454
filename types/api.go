package types

// Track is a single playlist entry queued for download
type Track struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`
}

// Label returns the "Artist - Name" form used in progress lists and filenames
func (t Track) Label() string {
	if t.Artist == "" {
		return t.Name
	}
	return t.Artist + " - " + t.Name
}

// Playlist is a resolved playlist snapshot
type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	TrackCount  int     `json:"track_count"`
	Tracks      []Track `json:"tracks"`
}

// PlaylistInfoRequest is the body of POST /api/playlist/info
type PlaylistInfoRequest struct {
	PlaylistURL string `json:"playlist_url"`
}

// DownloadRequest is the body of POST /api/download
type DownloadRequest struct {
	PlaylistURL string `json:"playlist_url"`
	Resume      bool   `json:"resume"`
}

// AudioFile represents a downloaded audio file in the library
type AudioFile struct {
	Filename string         `json:"filename"`
	Path     string         `json:"path"`
	Size     int64          `json:"size"`
	Format   string         `json:"format"` // "mp3" or "flac"
	Metadata *AudioMetadata `json:"metadata,omitempty"`
}

// AudioMetadata represents tag metadata for an audio file
type AudioMetadata struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
}
