// Package hammer drives an external form-factor weighting engine: it builds
// the run-level scheme setup, submits assembled decays and collects the
// nominal and variation weights for each candidate.
package hammer

import (
	"context"
	"errors"

	"github.com/raphaelgruber/rdxrw/internal/decay"
)

// ErrRejected marks a candidate the engine refused to weight. It is a
// per-event outcome, never a run failure.
var ErrRejected = errors.New("engine rejected candidate")

// ErrSession marks a broken engine session. It aborts the run.
var ErrSession = errors.New("engine session failed")

// Engine is one weighting session. Calls for a single event are issued in
// order: InitEvent, AddProcess, ProcessEvent, then any number of Weight.
// A session is not safe for concurrent use.
type Engine interface {
	InitEvent(ctx context.Context) error
	// AddProcess submits a decay graph and returns the engine's process
	// handle. A zero handle means the engine did not recognise the decay.
	AddProcess(ctx context.Context, g *decay.Graph) (int64, error)
	ProcessEvent(ctx context.Context) error
	// Weight returns the weight of the current event under scheme.
	Weight(ctx context.Context, scheme string) (float64, error)
}

// Setup configures a session before the first event.
type Setup interface {
	Configure(ctx context.Context, setup RunSetup) error
	InitRun(ctx context.Context) error
}

// Session is an engine that can also be configured and closed.
type Session interface {
	Engine
	Setup
	Close() error
}

// Prepare configures s and initialises the run.
func Prepare(ctx context.Context, s Setup, setup RunSetup) error {
	if err := s.Configure(ctx, setup); err != nil {
		return err
	}
	return s.InitRun(ctx)
}

type quietKey struct{}

// Quiet returns a context under which engine log output is discarded.
func Quiet(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey{}, true)
}

// IsQuiet reports whether ctx was derived from Quiet.
func IsQuiet(ctx context.Context) bool {
	q, _ := ctx.Value(quietKey{}).(bool)
	return q
}
