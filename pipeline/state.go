package pipeline

import "time"

// StageState is the externally visible state of one stage. Copies are
// returned from queries so callers never observe concurrent mutation.
type StageState struct {
	// Name is the stage identifier.
	Name string `json:"name"`

	// Status is the current execution status.
	Status StageStatus `json:"status"`

	// RequiresApproval marks stages gated behind an explicit approval.
	RequiresApproval bool `json:"requiresApproval"`

	// Approved is the one-way approval latch. Always true for stages that
	// do not require approval.
	Approved bool `json:"approved"`

	// Error holds the failure message of the last run, empty on success.
	Error string `json:"error,omitempty"`

	// RunID identifies the last run of this stage.
	RunID string `json:"runId,omitempty"`

	// StartedAt and FinishedAt bracket the last run.
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// PipelineStatus is the aggregate status computed from the per-stage states:
// running if any stage is running, failed if any stage failed, completed if
// every stage completed, pending otherwise.
func PipelineStatus(stages []StageState) StageStatus {
	if len(stages) == 0 {
		return StatusPending
	}

	completed := 0
	failed := false
	for _, s := range stages {
		switch s.Status {
		case StatusRunning:
			return StatusRunning
		case StatusFailed:
			failed = true
		case StatusCompleted:
			completed++
		}
	}
	if failed {
		return StatusFailed
	}
	if completed == len(stages) {
		return StatusCompleted
	}
	return StatusPending
}
