package types

import "time"

// JobStatus represents the current status of the download job
type JobStatus string

const (
	JobStatusIdle      JobStatus = "idle"
	JobStatusRunning   JobStatus = "running"
	JobStatusPaused    JobStatus = "paused"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "error"
)

// IsTerminal reports whether a poller can stop watching the job
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ReasonKind categorizes why a single track failed
type ReasonKind string

const (
	ReasonNotFound ReasonKind = "not_found"
	ReasonNetwork  ReasonKind = "network"
	ReasonEncoding ReasonKind = "encoding"
	ReasonStorage  ReasonKind = "storage"
)

// Text returns the short human-readable reason shown to users
func (k ReasonKind) Text() string {
	switch k {
	case ReasonNotFound:
		return "not found"
	case ReasonNetwork:
		return "network error"
	case ReasonEncoding:
		return "encoding error"
	case ReasonStorage:
		return "storage error"
	default:
		return "download failed"
	}
}

// TrackFailure is a track that could not be downloaded
type TrackFailure struct {
	Track  string     `json:"track"`
	Reason string     `json:"reason"`
	Kind   ReasonKind `json:"kind,omitempty"`
}

// JobSnapshot is an immutable copy of the controller's job state
type JobSnapshot struct {
	JobID        string         `json:"job_id,omitempty"`
	PlaylistURL  string         `json:"playlist_url,omitempty"`
	PlaylistName string         `json:"playlist,omitempty"`
	Status       JobStatus      `json:"status"`
	Cursor       int            `json:"current"`
	Total        int            `json:"total"`
	CurrentTrack string         `json:"current_track"`
	Completed    []string       `json:"completed"`
	Failed       []TrackFailure `json:"failed"`
	Error        string         `json:"error,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
}

// ProgressReport is the payload served to polling observers
type ProgressReport struct {
	JobSnapshot
	Percentage int `json:"percentage"`
}

// JobResult is returned by a Start call once the run pauses or finishes
type JobResult struct {
	JobID     string `json:"job_id"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Total     int    `json:"total"`
	Paused    bool   `json:"paused"`
}

// HistoryEntry records the outcome of one track download
type HistoryEntry struct {
	JobID       string    `json:"job_id"`
	PlaylistURL string    `json:"playlist_url"`
	Track       string    `json:"track"`
	Success     bool      `json:"success"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
