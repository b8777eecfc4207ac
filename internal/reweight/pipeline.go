// Package reweight runs truth candidates through the topology filter, the
// decay assembler and the weighting engine, and aggregates the outcome into
// fixed-width output rows.
package reweight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/rdxrw/internal/decay"
	"github.com/raphaelgruber/rdxrw/internal/hammer"
	"github.com/raphaelgruber/rdxrw/internal/particle"
	"github.com/raphaelgruber/rdxrw/internal/truth"
)

// Outcome is the per-candidate result. Weights are all 1.0 unless EngineOK.
type Outcome struct {
	TruthMatchOK bool
	KinematicsOK bool
	EngineOK     bool
	Weights      hammer.Weights
}

// Counters track candidates seen and successfully weighted within one run.
type Counters struct {
	Seen     uint64
	Weighted uint64
}

// Fraction returns Weighted/Seen, or 0 before the first candidate.
func (c Counters) Fraction() float64 {
	if c.Seen == 0 {
		return 0
	}
	return float64(c.Weighted) / float64(c.Seen)
}

// Options configure a Pipeline.
type Options struct {
	// SoftThreshold drops radiative photons below this energy.
	SoftThreshold float64

	Logger *slog.Logger
}

// Pipeline processes candidates one at a time against a single engine session.
type Pipeline struct {
	assembler *decay.Assembler
	weigher   *hammer.Weigher
	threshold float64
	logger    *slog.Logger
}

// NewPipeline creates a pipeline weighing through w.
func NewPipeline(w *hammer.Weigher, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	threshold := opts.SoftThreshold
	if threshold <= 0 {
		threshold = particle.DefaultSoftThreshold
	}
	return &Pipeline{
		assembler: decay.NewAssembler(logger),
		weigher:   w,
		threshold: threshold,
		logger:    logger,
	}
}

// Slots returns the number of variation weights per candidate.
func (p *Pipeline) Slots() int {
	return p.weigher.Slots()
}

// Process filters, assembles and weighs one truth candidate. Topology and
// kinematic rejections and engine refusals are outcomes, not errors; an
// error means the run cannot continue.
func (p *Pipeline) Process(ctx context.Context, ev truth.Event, c *Counters) (Outcome, error) {
	c.Seen++
	out := Outcome{Weights: hammer.DefaultWeights(p.Slots())}

	if !ev.MatchOK() {
		return out, nil
	}
	out.TruthMatchOK = true

	in, err := decay.FromEvent(ev, p.threshold)
	if err != nil {
		p.logger.Warn("bad kinematics for candidate", "candidate", c.Seen, "error", err)
		return out, nil
	}
	return p.weigh(ctx, in, c, out)
}

// ProcessInput weighs a candidate whose particles were built directly,
// skipping the truth-topology filter.
func (p *Pipeline) ProcessInput(ctx context.Context, in decay.Input, c *Counters) (Outcome, error) {
	c.Seen++
	out := Outcome{TruthMatchOK: true, Weights: hammer.DefaultWeights(p.Slots())}
	return p.weigh(ctx, in, c, out)
}

func (p *Pipeline) weigh(ctx context.Context, in decay.Input, c *Counters, out Outcome) (Outcome, error) {
	res, err := p.assembler.Assemble(in)
	if err != nil {
		return out, fmt.Errorf("candidate %d: %w", c.Seen, err)
	}
	if !res.KinematicsOK() {
		p.logger.Warn("bad kinematics for candidate",
			"candidate", c.Seen,
			"bad_particles", len(res.Bad),
			"state", res.State.String())
		return out, nil
	}
	out.KinematicsOK = true

	w, err := p.weigher.Weigh(ctx, res.Graph)
	if err != nil {
		if errors.Is(err, hammer.ErrRejected) {
			p.logger.Warn("engine rejected candidate", "candidate", c.Seen, "error", err)
			return out, nil
		}
		return out, fmt.Errorf("candidate %d: %w", c.Seen, err)
	}

	out.EngineOK = true
	out.Weights = w
	c.Weighted++
	return out, nil
}
