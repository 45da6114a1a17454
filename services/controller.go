package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
	"github.com/sohaibmokhliss/spotifyPLdownloader/websocket"
)

// JobController drives the single playlist download job of the process
type JobController interface {
	Start(ctx context.Context, playlistURL string, resume bool) (*types.JobResult, error)
	Stop()
	Snapshot() types.JobSnapshot
}

// ControllerDeps are the collaborators a controller is built from
type ControllerDeps struct {
	Resolver   PlaylistResolver
	Downloader TrackDownloader
	History    HistoryStore
	Hub        websocket.Hub
	TrackDelay time.Duration
}

type jobState struct {
	id            string
	playlistURL   string
	playlistName  string
	status        types.JobStatus
	cursor        int
	completed     []string
	failed        []types.TrackFailure
	currentTrack  string
	stopRequested bool
	err           string
	startedAt     *time.Time
	finishedAt    *time.Time
}

// jobController owns the job state. mu is never held across a download.
type jobController struct {
	mu     sync.Mutex
	state  jobState
	queue  []types.Track
	loaded bool

	resolver   PlaylistResolver
	downloader TrackDownloader
	history    HistoryStore
	hub        websocket.Hub
	trackDelay time.Duration

	// wakes the inter-track delay when a stop is requested
	stopSignal chan struct{}
}

// NewJobController creates an idle job controller
func NewJobController(deps ControllerDeps) JobController {
	return &jobController{
		state:      jobState{status: types.JobStatusIdle},
		resolver:   deps.Resolver,
		downloader: deps.Downloader,
		history:    deps.History,
		hub:        deps.Hub,
		trackDelay: deps.TrackDelay,
		stopSignal: make(chan struct{}, 1),
	}
}

// Start runs the job until it pauses or finishes. With resume it continues a
// paused job from its cursor, otherwise it rebuilds the queue from playlistURL.
// A panic in a collaborator moves the job to the error status.
func (c *jobController) Start(ctx context.Context, playlistURL string, resume bool) (result *types.JobResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrControllerPanic, r)
			result = nil
			c.fail(err)
		}
	}()

	if resume {
		if err := c.beginResume(); err != nil {
			return nil, err
		}
	} else {
		if err := c.beginFresh(playlistURL); err != nil {
			return nil, err
		}
		if err := c.loadQueue(ctx, playlistURL); err != nil {
			return nil, err
		}
	}

	return c.run(ctx)
}

// Stop asks a running job to pause at the next track boundary
func (c *jobController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.status != types.JobStatusRunning {
		return
	}

	c.state.stopRequested = true
	select {
	case c.stopSignal <- struct{}{}:
	default:
	}

	slog.Info("Stop requested", "job_id", c.state.id, "cursor", c.state.cursor)
}

// Snapshot returns a deep copy of the job state
func (c *jobController) Snapshot() types.JobSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := types.JobSnapshot{
		JobID:        c.state.id,
		PlaylistURL:  c.state.playlistURL,
		PlaylistName: c.state.playlistName,
		Status:       c.state.status,
		Cursor:       c.state.cursor,
		Total:        len(c.queue),
		CurrentTrack: c.state.currentTrack,
		Completed:    make([]string, len(c.state.completed)),
		Failed:       make([]types.TrackFailure, len(c.state.failed)),
		Error:        c.state.err,
	}
	copy(snap.Completed, c.state.completed)
	copy(snap.Failed, c.state.failed)

	if c.state.startedAt != nil {
		t := *c.state.startedAt
		snap.StartedAt = &t
	}
	if c.state.finishedAt != nil {
		t := *c.state.finishedAt
		snap.FinishedAt = &t
	}

	return snap
}

func (c *jobController) beginFresh(playlistURL string) error {
	c.mu.Lock()
	if c.state.status == types.JobStatusRunning {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	if playlistURL == "" {
		c.mu.Unlock()
		return ErrMissingPlaylistURL
	}

	now := time.Now()
	c.state = jobState{
		id:          uuid.New().String(),
		playlistURL: playlistURL,
		status:      types.JobStatusRunning,
		completed:   []string{},
		failed:      []types.TrackFailure{},
		startedAt:   &now,
	}
	c.queue = nil
	c.loaded = false
	jobID := c.state.id
	c.drainStopSignal()
	c.mu.Unlock()

	slog.Info("Download job started", "job_id", jobID, "playlist_url", playlistURL)
	c.publish("progress")
	return nil
}

func (c *jobController) beginResume() error {
	c.mu.Lock()
	if c.state.status == types.JobStatusRunning {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	if c.state.status != types.JobStatusPaused || !c.loaded {
		c.mu.Unlock()
		return ErrNoPausedJob
	}

	c.state.status = types.JobStatusRunning
	c.state.stopRequested = false
	c.state.finishedAt = nil
	c.state.err = ""
	c.setCurrentTrackLocked()
	jobID, cursor := c.state.id, c.state.cursor
	c.drainStopSignal()
	c.mu.Unlock()

	slog.Info("Download job resumed", "job_id", jobID, "cursor", cursor)
	c.publish("progress")
	return nil
}

func (c *jobController) loadQueue(ctx context.Context, playlistURL string) error {
	playlist, err := c.resolver.Resolve(ctx, playlistURL)
	if err != nil {
		err = fmt.Errorf("failed to resolve playlist: %w", err)
		c.fail(err)
		return err
	}

	c.mu.Lock()
	c.queue = make([]types.Track, len(playlist.Tracks))
	copy(c.queue, playlist.Tracks)
	c.loaded = true
	c.state.playlistName = playlist.Name
	c.setCurrentTrackLocked()
	jobID := c.state.id
	c.mu.Unlock()

	slog.Info("Playlist resolved", "job_id", jobID, "playlist", playlist.Name, "total", len(playlist.Tracks))
	c.publish("progress")
	return nil
}

func (c *jobController) run(ctx context.Context) (*types.JobResult, error) {
	for {
		track, done, finished := c.checkpoint(ctx)
		if finished {
			return done, nil
		}

		downloadErr := c.downloader.Download(ctx, track)
		if downloadErr != nil && ctx.Err() != nil {
			// Cancelled mid-track: drop the outcome so resume retries it
			slog.Warn("Track download interrupted", "track", track.Label(), "error", downloadErr)
			return c.pause(), nil
		}

		more := c.record(ctx, track, downloadErr)
		if more {
			c.delay(ctx)
		}
	}
}

// checkpoint is the only place the job may pause or complete. It returns the
// next track to process, or the final result when the run is over.
func (c *jobController) checkpoint(ctx context.Context) (types.Track, *types.JobResult, bool) {
	c.mu.Lock()

	if c.state.cursor >= len(c.queue) {
		now := time.Now()
		c.state.status = types.JobStatusCompleted
		c.state.currentTrack = ""
		c.state.stopRequested = false
		c.state.finishedAt = &now
		result := c.resultLocked(false)
		c.mu.Unlock()

		slog.Info("Download job completed", "job_id", result.JobID, "completed", result.Completed, "failed", result.Failed)
		c.publish("complete")
		return types.Track{}, result, true
	}

	if c.state.stopRequested || ctx.Err() != nil {
		c.mu.Unlock()
		return types.Track{}, c.pause(), true
	}

	track := c.queue[c.state.cursor]
	c.state.currentTrack = track.Label()
	c.mu.Unlock()

	c.publish("progress")
	return track, nil, false
}

func (c *jobController) pause() *types.JobResult {
	c.mu.Lock()
	c.state.status = types.JobStatusPaused
	c.state.currentTrack = ""
	c.state.stopRequested = false
	result := c.resultLocked(true)
	cursor := c.state.cursor
	c.mu.Unlock()

	slog.Info("Download job paused", "job_id", result.JobID, "cursor", cursor, "total", result.Total)
	c.publish("paused")
	return result
}

// record appends the outcome of track and advances the cursor. It reports
// whether tracks remain.
func (c *jobController) record(ctx context.Context, track types.Track, downloadErr error) bool {
	label := track.Label()
	entry := types.HistoryEntry{Track: label, Success: downloadErr == nil, Timestamp: time.Now()}

	c.mu.Lock()
	if downloadErr == nil {
		c.state.completed = append(c.state.completed, label)
	} else {
		failure := failureFor(label, downloadErr)
		c.state.failed = append(c.state.failed, failure)
		entry.Reason = failure.Reason
	}
	c.state.cursor++
	c.setCurrentTrackLocked()
	entry.JobID = c.state.id
	entry.PlaylistURL = c.state.playlistURL
	cursor, total := c.state.cursor, len(c.queue)
	c.mu.Unlock()

	if downloadErr == nil {
		slog.Info("Track downloaded", "job_id", entry.JobID, "track", label, "cursor", cursor, "total", total)
	} else {
		slog.Warn("Track failed", "job_id", entry.JobID, "track", label, "reason", entry.Reason, "error", downloadErr)
	}

	if c.history != nil {
		if err := c.history.Record(ctx, entry); err != nil {
			slog.Error("Failed to record download history", "track", label, "error", err)
		}
	}

	c.publish("progress")
	return cursor < total
}

// delay pauses between tracks; a stop request or cancellation cuts it short
func (c *jobController) delay(ctx context.Context) {
	if c.trackDelay <= 0 {
		return
	}

	timer := time.NewTimer(c.trackDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-c.stopSignal:
	case <-ctx.Done():
	}
}

func (c *jobController) fail(err error) {
	c.mu.Lock()
	now := time.Now()
	c.state.status = types.JobStatusFailed
	c.state.err = err.Error()
	c.state.currentTrack = ""
	c.state.stopRequested = false
	c.state.finishedAt = &now
	jobID := c.state.id
	c.mu.Unlock()

	slog.Error("Download job failed", "job_id", jobID, "error", err)
	c.publish("error")
}

// setCurrentTrackLocked keeps currentTrack set iff running with tracks left
func (c *jobController) setCurrentTrackLocked() {
	if c.state.status == types.JobStatusRunning && c.state.cursor < len(c.queue) {
		c.state.currentTrack = c.queue[c.state.cursor].Label()
		return
	}
	c.state.currentTrack = ""
}

func (c *jobController) resultLocked(paused bool) *types.JobResult {
	return &types.JobResult{
		JobID:     c.state.id,
		Completed: len(c.state.completed),
		Failed:    len(c.state.failed),
		Total:     len(c.queue),
		Paused:    paused,
	}
}

func (c *jobController) drainStopSignal() {
	select {
	case <-c.stopSignal:
	default:
	}
}

func (c *jobController) publish(msgType string) {
	if c.hub == nil {
		return
	}
	c.hub.BroadcastProgress(msgType, BuildReport(c.Snapshot()))
}
