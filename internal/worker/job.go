package worker

import (
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const (
	// ReasonScheduled marks jobs inserted by the periodic schedule.
	ReasonScheduled = "scheduled"
	// ReasonManual marks jobs enqueued from the CLI.
	ReasonManual = "manual"

	// exportMaxAttempts is the number of times River runs a failing export.
	exportMaxAttempts = 3
	// exportUniquePeriod is the window in which only one export job may exist.
	exportUniquePeriod = time.Hour
)

// ExportJobArgs contains the arguments for an export job submitted to River.
type ExportJobArgs struct {
	// Reason records what triggered the export. It is informational only and is
	// not part of the uniqueness key.
	Reason string `json:"reason"`
	// RunID is the run stored together with the job by Enqueue. Scheduled jobs
	// have none and record a new run when worked.
	RunID string `json:"runID,omitempty"`
}

// Kind returns the River job kind used to register and dispatch the export worker.
func (args ExportJobArgs) Kind() string { return "ExportJob" }

// InsertOpts returns the River options that control how the job is enqueued.
// Exports are unique per period regardless of their reason, so a manual
// trigger next to the scheduled one collapses into a single run.
func (args ExportJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: exportMaxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: exportUniquePeriod,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStateCompleted,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}
