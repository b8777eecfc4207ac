package hammer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/raphaelgruber/rdxrw/internal/decay"
	"github.com/raphaelgruber/rdxrw/internal/metrics"
)

// Weights are the per-candidate weights. Every weight defaults to 1.0.
type Weights struct {
	Nominal    float64
	Variations []float64
}

// DefaultWeights returns all-1.0 weights with the given number of slots.
func DefaultWeights(slots int) Weights {
	w := Weights{Nominal: 1.0, Variations: make([]float64, slots)}
	for i := range w.Variations {
		w.Variations[i] = 1.0
	}
	return w
}

// Weigher runs one candidate through an engine session.
type Weigher struct {
	engine     Engine
	nominal    string
	variations []string
	metrics    *metrics.Collector
}

// NewWeigher creates a weigher for the schemes of setup. The collector may be nil.
func NewWeigher(engine Engine, setup RunSetup, m *metrics.Collector) *Weigher {
	return &Weigher{
		engine:     engine,
		nominal:    setup.Nominal(),
		variations: setup.Variations(),
		metrics:    m,
	}
}

// Slots returns the number of variation weights produced per candidate.
func (w *Weigher) Slots() int {
	return len(w.variations)
}

// Weigh submits g and returns its weights. When the engine refuses the
// candidate the returned error wraps ErrRejected and the weights are all
// 1.0. Variation schemes are fetched one by one with engine logging
// silenced; a failing variation keeps its default. Any other error, a
// cancelled context or ErrSession, aborts the run.
func (w *Weigher) Weigh(ctx context.Context, g *decay.Graph) (Weights, error) {
	out := DefaultWeights(len(w.variations))

	if err := w.timed(metrics.OpInitEvent, func() error { return w.engine.InitEvent(ctx) }); err != nil {
		return out, w.classify(ctx, "init event", err)
	}

	var handle int64
	err := w.timed(metrics.OpAddProcess, func() error {
		var err error
		handle, err = w.engine.AddProcess(ctx, g)
		return err
	})
	if err != nil {
		return out, w.classify(ctx, "add process", err)
	}
	if handle == 0 {
		return out, fmt.Errorf("%w: decay not recognised", ErrRejected)
	}

	if err := w.timed(metrics.OpProcessEvent, func() error { return w.engine.ProcessEvent(ctx) }); err != nil {
		return out, w.classify(ctx, "process event", err)
	}

	var nominal float64
	err = w.timed(metrics.OpNominalWeight, func() error {
		var err error
		nominal, err = w.engine.Weight(ctx, w.nominal)
		return err
	})
	if err != nil {
		return out, w.classify(ctx, "nominal weight", err)
	}
	if math.IsNaN(nominal) || math.IsInf(nominal, 0) {
		return out, fmt.Errorf("%w: nominal weight is %v", ErrRejected, nominal)
	}
	out.Nominal = nominal

	quiet := Quiet(ctx)
	for i, scheme := range w.variations {
		var v float64
		err := w.timed(metrics.OpVariationWeight, func() error {
			var err error
			v, err = w.engine.Weight(quiet, scheme)
			return err
		})
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrSession) {
				return out, w.classify(ctx, "variation weight", err)
			}
			continue
		}
		out.Variations[i] = v
	}
	return out, nil
}

func (w *Weigher) classify(ctx context.Context, step string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, ErrSession) {
		return fmt.Errorf("%s: %w", step, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrRejected, step, err)
}

func (w *Weigher) timed(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	if err != nil {
		w.metrics.RecordFailure(op, time.Since(start))
	} else {
		w.metrics.RecordTiming(op, time.Since(start))
	}
	return err
}
