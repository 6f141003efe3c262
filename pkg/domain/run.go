package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunID uniquely identifies an export run.
// It wraps uuid.UUID to provide type safety at the domain layer.
type RunID uuid.UUID

// String returns the canonical textual form of the run ID.
func (id RunID) String() string { return uuid.UUID(id).String() }

// NewRunID generates a random run ID.
func NewRunID() RunID { return RunID(uuid.New()) }

// RunStatus represents the lifecycle state of an export run.
type RunStatus string

const (
	// RunStatusRunning indicates the run has started and has not finished yet.
	RunStatusRunning RunStatus = "RUNNING"
	// RunStatusCompleted indicates every artifact was written and published.
	RunStatusCompleted RunStatus = "COMPLETED"
	// RunStatusPartial indicates the metadata artifact was written but some entity
	// artifacts or publishers failed; see FailedArtifacts and LastError.
	RunStatusPartial RunStatus = "PARTIAL"
	// RunStatusFailed indicates the run aborted before a consistent artifact set existed.
	RunStatusFailed RunStatus = "FAILED"
)

// Run records the outcome of one fetch, normalize, emit and publish cycle.
type Run struct {
	// ID is the unique identifier of the run.
	ID RunID `json:"id"`
	// Status is the current lifecycle state of the run.
	Status RunStatus `json:"status"`

	// Entities is the number of entities in the normalized dataset.
	Entities int `json:"entities"`
	// Artifacts is the number of artifacts written successfully, metadata included.
	Artifacts int `json:"artifacts"`
	// FailedArtifacts is the number of entity artifacts that could not be written.
	FailedArtifacts int `json:"failedArtifacts"`
	// LastError holds the error that failed the run or a summary of partial failures.
	LastError string `json:"lastError,omitempty"`

	// StartedAt is the time the run started.
	StartedAt time.Time `json:"startedAt"`
	// FinishedAt is the time the run finished; zero while running.
	FinishedAt time.Time `json:"finishedAt"`
}

// Duration returns how long the run took, or zero if it has not finished.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}

	return r.FinishedAt.Sub(r.StartedAt)
}
