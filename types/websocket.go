package types

import "time"

// ProgressMessage represents a WebSocket progress update message
type ProgressMessage struct {
	Type      string         `json:"type"` // "progress", "paused", "complete", "error"
	Report    ProgressReport `json:"report"`
	Timestamp time.Time      `json:"timestamp"`
}
