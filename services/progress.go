package services

import (
	"math"

	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

// ProgressReporter projects the controller's state into poll-friendly reports
type ProgressReporter struct {
	controller JobController
}

// NewProgressReporter creates a reporter reading from controller
func NewProgressReporter(controller JobController) *ProgressReporter {
	return &ProgressReporter{controller: controller}
}

// Report returns the latest progress report
func (r *ProgressReporter) Report() types.ProgressReport {
	return BuildReport(r.controller.Snapshot())
}

// BuildReport derives the report payload from a snapshot
func BuildReport(snap types.JobSnapshot) types.ProgressReport {
	return types.ProgressReport{
		JobSnapshot: snap,
		Percentage:  Percent(snap.Cursor, snap.Total),
	}
}

// Percent returns round(cursor/total*100), or 0 when there is nothing to do
func Percent(cursor, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(cursor) / float64(total) * 100))
}
