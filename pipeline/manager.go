package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/pedal/stage"
)

var (
	// ErrUnknownStage is returned when a stage name is not declared.
	ErrUnknownStage = errors.New("unknown stage")

	// ErrApprovalRequired is returned when a gated stage runs unapproved.
	ErrApprovalRequired = errors.New("approval required")

	// ErrPreviousStageNotCompleted is returned when a stage runs before its
	// predecessor completed.
	ErrPreviousStageNotCompleted = errors.New("previous stage not completed")

	// ErrStageRunning is returned when a stage that is already executing is
	// started again.
	ErrStageRunning = errors.New("stage is already running")
)

// StageDef declares one stage of the pipeline: its transformer plus the
// artifact paths and the approval requirement.
type StageDef struct {
	Name             string
	InputPath        string
	OutputPath       string
	RequiresApproval bool
	Runner           stage.Stage
}

// Manager sequences the declared stages. All state access is serialized
// behind a mutex; stage execution itself happens outside the lock.
type Manager struct {
	logger  *slog.Logger
	metrics *Metrics

	mu     sync.Mutex
	defs   []StageDef
	states map[string]*StageState
	order  []string
}

// NewManager creates a pipeline manager over the declared stages, in order.
func NewManager(logger *slog.Logger, defs []StageDef) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		logger:  logger,
		metrics: NewMetrics(),
		defs:    defs,
		states:  make(map[string]*StageState, len(defs)),
	}
	for _, def := range defs {
		m.order = append(m.order, def.Name)
		m.states[def.Name] = &StageState{
			Name:             def.Name,
			Status:           StatusPending,
			RequiresApproval: def.RequiresApproval,
			Approved:         !def.RequiresApproval,
		}
	}
	return m
}

// Metrics returns the run metrics of this manager, for scraping.
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

// StageNames returns the declared stage names in pipeline order.
func (m *Manager) StageNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// StageStates returns a snapshot of every stage state in pipeline order.
func (m *Manager) StageStates() []StageState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() []StageState {
	out := make([]StageState, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, *m.states[name])
	}
	return out
}

// StageStateFor returns a snapshot of one stage state.
func (m *Manager) StageStateFor(name string) (StageState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[name]
	if !ok {
		return StageState{}, fmt.Errorf("%w: %s", ErrUnknownStage, name)
	}
	return *st, nil
}

// Status returns the aggregate pipeline status.
func (m *Manager) Status() StageStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return PipelineStatus(m.snapshotLocked())
}

// Approve sets the approval latch of a stage. The latch is one-way:
// approving an already approved stage is a no-op, and there is no revoke.
func (m *Manager) Approve(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStage, name)
	}
	if st.Approved {
		return nil
	}
	st.Approved = true
	m.logger.Info("stage approved", slog.String("stage", name))
	return nil
}

// RunStage executes one stage synchronously after checking its gates: the
// predecessor must be completed and the approval latch set.
func (m *Manager) RunStage(ctx context.Context, name string) error {
	def, runID, err := m.begin(name, false)
	if err != nil {
		return err
	}
	return m.execute(ctx, def, runID)
}

// RunStageAsync starts one stage in the background and returns its run ID.
// Gate checks happen before the goroutine starts, so callers learn about
// gate violations synchronously.
func (m *Manager) RunStageAsync(ctx context.Context, name string) (string, error) {
	def, runID, err := m.begin(name, false)
	if err != nil {
		return "", err
	}
	go func() {
		if err := m.execute(ctx, def, runID); err != nil {
			m.logger.Error("stage run failed",
				slog.String("stage", def.Name),
				slog.String("run_id", runID),
				slog.String("error", err.Error()))
		}
	}()
	return runID, nil
}

// RunAll force-approves every stage, resets all states to pending, then runs
// the stages strictly in declared order, halting at the first failure and
// leaving all subsequent stages pending.
func (m *Manager) RunAll(ctx context.Context) error {
	m.mu.Lock()
	for _, name := range m.order {
		st := m.states[name]
		st.Approved = true
		st.Status = StatusPending
		st.Error = ""
		st.RunID = ""
		st.StartedAt = nil
		st.FinishedAt = nil
	}
	order := make([]string, len(m.order))
	copy(order, m.order)
	m.mu.Unlock()

	m.logger.Info("full pipeline run started", slog.Int("stages", len(order)))

	for _, name := range order {
		def, runID, err := m.begin(name, true)
		if err != nil {
			return err
		}
		if err := m.execute(ctx, def, runID); err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}
	}

	m.logger.Info("full pipeline run completed")
	return nil
}

// begin checks the gates of a stage and transitions it to running. The
// skipGates flag is used by RunAll, which has already force-approved and
// runs strictly in order.
func (m *Manager) begin(name string, skipGates bool) (StageDef, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var def StageDef
	idx := -1
	for i, d := range m.defs {
		if d.Name == name {
			def = d
			idx = i
			break
		}
	}
	if idx < 0 {
		return StageDef{}, "", fmt.Errorf("%w: %s", ErrUnknownStage, name)
	}

	st := m.states[name]
	if st.Status == StatusRunning {
		return StageDef{}, "", fmt.Errorf("%w: %s", ErrStageRunning, name)
	}

	if !skipGates {
		if idx > 0 {
			prev := m.states[m.order[idx-1]]
			if prev.Status != StatusCompleted {
				return StageDef{}, "", fmt.Errorf("%w: %s requires %s to be completed, is %s",
					ErrPreviousStageNotCompleted, name, prev.Name, prev.Status)
			}
		}
		if !st.Approved {
			return StageDef{}, "", fmt.Errorf("%w: %s", ErrApprovalRequired, name)
		}
	}

	runID := uuid.New().String()
	now := time.Now()
	st.Status = StatusRunning
	st.Error = ""
	st.RunID = runID
	st.StartedAt = &now
	st.FinishedAt = nil

	return def, runID, nil
}

// execute runs the stage transformer and records the outcome.
func (m *Manager) execute(ctx context.Context, def StageDef, runID string) error {
	m.logger.Info("stage run started",
		slog.String("stage", def.Name),
		slog.String("run_id", runID),
		slog.String("input", def.InputPath),
		slog.String("output", def.OutputPath))

	start := time.Now()
	err := def.Runner.Run(ctx, def.InputPath, def.OutputPath)
	elapsed := time.Since(start)

	m.mu.Lock()
	st := m.states[def.Name]
	now := time.Now()
	st.FinishedAt = &now
	if err != nil {
		st.Status = StatusFailed
		st.Error = err.Error()
	} else {
		st.Status = StatusCompleted
	}
	m.mu.Unlock()

	if err != nil {
		m.metrics.ObserveRun(def.Name, StatusFailed, elapsed)
		return err
	}

	m.metrics.ObserveRun(def.Name, StatusCompleted, elapsed)
	m.logger.Info("stage run completed",
		slog.String("stage", def.Name),
		slog.String("run_id", runID),
		slog.Duration("elapsed", elapsed))
	return nil
}

// Restore overwrites the tracked states from a persisted snapshot. Unknown
// stage names are ignored; running states collapse to pending because no run
// survives a restart.
func (m *Manager) Restore(states []StageState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, saved := range states {
		st, ok := m.states[saved.Name]
		if !ok {
			continue
		}
		status := saved.Status
		if status == StatusRunning || !status.IsValid() {
			status = StatusPending
		}
		st.Status = status
		st.Error = saved.Error
		st.RunID = saved.RunID
		st.StartedAt = saved.StartedAt
		st.FinishedAt = saved.FinishedAt
		if saved.Approved {
			st.Approved = true
		}
	}
}
