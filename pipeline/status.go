// Package pipeline sequences the stage transformers: it tracks per-stage
// state, enforces dependency and approval gates, and exposes stage and
// aggregate pipeline status.
package pipeline

// StageStatus is the execution state of one pipeline stage.
type StageStatus string

const (
	// StatusPending means the stage has not run in this pipeline cycle.
	StatusPending StageStatus = "pending"
	// StatusRunning means the stage is currently executing.
	StatusRunning StageStatus = "running"
	// StatusCompleted means the last run of the stage succeeded.
	StatusCompleted StageStatus = "completed"
	// StatusFailed means the last run of the stage failed.
	StatusFailed StageStatus = "failed"
)

// String returns the status as a string.
func (s StageStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a known value.
func (s StageStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status marks a finished run.
func (s StageStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo returns true if the status can transition to the target
// status. Completed and failed stages may re-enter running: stages are
// re-runnable within a pipeline cycle.
func (s StageStatus) CanTransitionTo(target StageStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusRunning
	case StatusRunning:
		return target == StatusCompleted || target == StatusFailed
	case StatusCompleted, StatusFailed:
		return target == StatusRunning || target == StatusPending
	default:
		return false
	}
}
