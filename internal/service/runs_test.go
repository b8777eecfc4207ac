package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/rdxrw/internal/models"
	"github.com/raphaelgruber/rdxrw/internal/reweight"
)

type memoryLedger struct {
	mu        sync.Mutex
	created   []models.RunInput
	statuses  []string
	progress  []int64
	completed map[string][2]int64
	failed    map[string]string
	err       error
	createErr error
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{completed: map[string][2]int64{}, failed: map[string]string{}}
}

func (l *memoryLedger) CreateRun(_ context.Context, in models.RunInput) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.createErr != nil {
		return l.createErr
	}
	l.created = append(l.created, in)
	return nil
}

func (l *memoryLedger) UpdateRunStatus(_ context.Context, _, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, status)
	return l.err
}

func (l *memoryLedger) UpdateRunProgress(_ context.Context, _ string, progress int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.progress = append(l.progress, progress)
	return l.err
}

func (l *memoryLedger) CompleteRun(_ context.Context, id string, seen, weighted int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completed[id] = [2]int64{seen, weighted}
	return l.err
}

func (l *memoryLedger) FailRun(ctx context.Context, id, msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	l.failed[id] = msg
	return l.err
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestRunLifecycle(t *testing.T) {
	ledger := newMemoryLedger()
	m := NewRunManager(ledger)
	clk := &clock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	m.now = clk.now
	ctx := context.Background()

	run, err := m.Create(ctx, "mc.root", "TupleB0/DecayTree:b0", "out.root", 100)
	require.NoError(t, err)
	assert.Len(t, run.ID, 8)
	assert.Equal(t, RunStatusPending, run.Snapshot().Status)
	require.Len(t, ledger.created, 1)
	assert.Equal(t, run.ID, ledger.created[0].ID)

	m.Start(ctx, run)
	assert.Equal(t, []string{"running"}, ledger.statuses)

	m.UpdateProgress(ctx, run, 10, 100)
	clk.t = clk.t.Add(time.Second)
	m.UpdateProgress(ctx, run, 20, 100)
	clk.t = clk.t.Add(ProgressInterval)
	m.UpdateProgress(ctx, run, 60, 100)
	m.UpdateProgress(ctx, run, 100, 100)
	assert.Equal(t, []int64{60, 100}, ledger.progress)
	assert.Equal(t, int64(100), run.Snapshot().Progress)

	m.Complete(ctx, run, reweight.Counters{Seen: 100, Weighted: 87})
	snap := run.Snapshot()
	assert.Equal(t, RunStatusCompleted, snap.Status)
	assert.Equal(t, uint64(87), snap.Counters.Weighted)
	require.NotNil(t, snap.CompletedAt)
	assert.Equal(t, [2]int64{100, 87}, ledger.completed[run.ID])
}

func TestRunFailPersistsAfterCancel(t *testing.T) {
	ledger := newMemoryLedger()
	m := NewRunManager(ledger)

	ctx, cancel := context.WithCancel(context.Background())
	run, err := m.Create(ctx, "mc.root", "t:b", "out.root", 10)
	require.NoError(t, err)
	cancel()

	m.Fail(ctx, run, errors.New("engine connection lost"))
	assert.Equal(t, RunStatusFailed, run.Snapshot().Status)
	assert.Equal(t, "engine connection lost", ledger.failed[run.ID])
}

func TestRunLedgerErrorsAreNotFatal(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.err = errors.New("ledger down")
	m := NewRunManager(ledger)
	ctx := context.Background()

	run, err := m.Create(ctx, "mc.root", "t:b", "out.root", 1)
	require.NoError(t, err)
	m.Start(ctx, run)
	m.UpdateProgress(ctx, run, 1, 1)
	m.Complete(ctx, run, reweight.Counters{Seen: 1, Weighted: 1})
	assert.Equal(t, RunStatusCompleted, run.Snapshot().Status)

	ledger.createErr = errors.New("duplicate")
	_, err = m.Create(ctx, "mc.root", "t:b", "out.root", 1)
	assert.Error(t, err)
	assert.Len(t, ledger.created, 1)
}

func TestRunManagerWithoutLedger(t *testing.T) {
	m := NewRunManager(nil)
	ctx := context.Background()

	first, err := m.Create(ctx, "mc.root", "a:b", "out.root", 1)
	require.NoError(t, err)
	second, err := m.Create(ctx, "mc.root", "c:d", "out.root", 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	m.UpdateProgress(ctx, second, 1, 1)
	assert.Equal(t, RunStatusRunning, second.Snapshot().Status)

	m.Fail(ctx, first, errors.New("boom"))
	snap := first.Snapshot()
	assert.Equal(t, RunStatusFailed, snap.Status)
	assert.Equal(t, "boom", snap.Error)
	require.NotNil(t, snap.CompletedAt)
}
