// Package service tracks reweighting runs and persists them to the ledger.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/rdxrw/internal/models"
	"github.com/raphaelgruber/rdxrw/internal/reweight"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Ledger persists run state. *db.Client implements it.
type Ledger interface {
	CreateRun(ctx context.Context, in models.RunInput) error
	UpdateRunStatus(ctx context.Context, id, status string) error
	UpdateRunProgress(ctx context.Context, id string, progress int64) error
	CompleteRun(ctx context.Context, id string, seen, weighted int64) error
	FailRun(ctx context.Context, id, msg string) error
}

// ProgressInterval bounds how often progress is written to the ledger.
const ProgressInterval = 5 * time.Second

// Run is one tree being reweighted.
type Run struct {
	ID       string
	Input    string
	Tree     string
	Output   string
	Status   RunStatus
	Progress int64
	Total    int64
	Counters reweight.Counters
	Error    string

	StartedAt   time.Time
	CompletedAt *time.Time

	mu          sync.RWMutex
	lastPersist time.Time
}

// Snapshot returns a copy of the run state safe to read concurrently.
func (r *Run) Snapshot() Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Run{
		ID:          r.ID,
		Input:       r.Input,
		Tree:        r.Tree,
		Output:      r.Output,
		Status:      r.Status,
		Progress:    r.Progress,
		Total:       r.Total,
		Counters:    r.Counters,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
}

// RunManager drives the lifecycle of runs. Ledger failures are logged
// and never fail a run.
type RunManager struct {
	ledger Ledger
	now    func() time.Time
}

// NewRunManager creates a manager. The ledger may be nil.
func NewRunManager(ledger Ledger) *RunManager {
	return &RunManager{
		ledger: ledger,
		now:    time.Now,
	}
}

// Create registers a pending run over tree of input.
func (m *RunManager) Create(ctx context.Context, input, tree, output string, total int64) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String()[:8],
		Input:     input,
		Tree:      tree,
		Output:    output,
		Status:    RunStatusPending,
		Total:     total,
		StartedAt: m.now(),
	}

	if m.ledger != nil {
		err := m.ledger.CreateRun(ctx, models.RunInput{
			ID:     run.ID,
			Input:  input,
			Tree:   tree,
			Output: output,
			Total:  total,
		})
		if err != nil {
			return nil, err
		}
	}

	slog.Info("run created", "run_id", run.ID, "tree", tree, "candidates", total)
	return run, nil
}

// Start marks a run as running.
func (m *RunManager) Start(ctx context.Context, run *Run) {
	run.mu.Lock()
	run.Status = RunStatusRunning
	run.lastPersist = m.now()
	run.mu.Unlock()

	if m.ledger != nil {
		if err := m.ledger.UpdateRunStatus(ctx, run.ID, string(RunStatusRunning)); err != nil {
			slog.Warn("failed to persist run start", "run_id", run.ID, "error", err)
		}
	}
}

// UpdateProgress records progress; ledger writes are debounced to one per
// ProgressInterval plus the final one.
func (m *RunManager) UpdateProgress(ctx context.Context, run *Run, done, total int64) {
	run.mu.Lock()
	run.Progress = done
	run.Total = total
	if run.Status == RunStatusPending {
		run.Status = RunStatusRunning
	}
	now := m.now()
	persist := m.ledger != nil && (now.Sub(run.lastPersist) >= ProgressInterval || done == total)
	if persist {
		run.lastPersist = now
	}
	run.mu.Unlock()

	if persist {
		if err := m.ledger.UpdateRunProgress(ctx, run.ID, done); err != nil {
			slog.Warn("failed to persist run progress", "run_id", run.ID, "error", err)
		}
	}
}

// Complete marks a run as completed with its counters.
func (m *RunManager) Complete(ctx context.Context, run *Run, c reweight.Counters) {
	run.mu.Lock()
	run.Status = RunStatusCompleted
	run.Counters = c
	run.Progress = int64(c.Seen)
	now := m.now()
	run.CompletedAt = &now
	run.mu.Unlock()

	if m.ledger != nil {
		if err := m.ledger.CompleteRun(ctx, run.ID, int64(c.Seen), int64(c.Weighted)); err != nil {
			slog.Warn("failed to persist run completion", "run_id", run.ID, "error", err)
		}
	}

	slog.Info("run completed",
		"run_id", run.ID,
		"tree", run.Tree,
		"seen", c.Seen,
		"weighted", c.Weighted,
		"fraction", c.Fraction())
}

// Fail marks a run as failed.
func (m *RunManager) Fail(ctx context.Context, run *Run, err error) {
	run.mu.Lock()
	run.Status = RunStatusFailed
	run.Error = err.Error()
	now := m.now()
	run.CompletedAt = &now
	run.mu.Unlock()

	if m.ledger != nil {
		// The run context is usually cancelled by now.
		ctx = context.WithoutCancel(ctx)
		if dbErr := m.ledger.FailRun(ctx, run.ID, err.Error()); dbErr != nil {
			slog.Warn("failed to persist run failure", "run_id", run.ID, "error", dbErr)
		}
	}

	slog.Error("run failed", "run_id", run.ID, "tree", run.Tree, "error", err)
}
