package reweight

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-hep.org/x/hep/hbook"

	"github.com/raphaelgruber/rdxrw/internal/truth"
)

// Source yields truth candidates in order.
type Source interface {
	Entries() int64
	Each(ctx context.Context, fn func(truth.Event) error) error
}

// Sink receives one output row per candidate.
type Sink interface {
	Write(Record) error
}

// Nominal-weight histogram binning for run summaries.
const (
	summaryBins = 40
	summaryMin  = 0.0
	summaryMax  = 4.0
)

// Summary describes a finished run.
type Summary struct {
	Counters
	Duration time.Duration

	// Nominal holds the nominal weights of the weighted candidates.
	Nominal *hbook.H1D
}

// NewSummaryHist returns an empty nominal-weight histogram.
func NewSummaryHist() *hbook.H1D {
	return hbook.NewH1D(summaryBins, summaryMin, summaryMax)
}

// Run drives one tree through a pipeline.
type Run struct {
	Pipeline *Pipeline
	Source   Source
	Sink     Sink
	Logger   *slog.Logger

	// OnProgress, when set, is called every ProgressEvery candidates and
	// once at the end.
	OnProgress    func(done, total int64)
	ProgressEvery int64
}

// Execute processes every candidate of the source. Rejections are written
// with default weights; only session, sink and source failures stop the run.
func (r *Run) Execute(ctx context.Context) (Summary, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	every := r.ProgressEvery
	if every <= 0 {
		every = 100
	}

	start := time.Now()
	total := r.Source.Entries()
	sum := Summary{Nominal: NewSummaryHist()}
	var done int64

	err := r.Source.Each(ctx, func(ev truth.Event) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := r.Pipeline.Process(ctx, ev, &sum.Counters)
		if err != nil {
			return err
		}
		if out.EngineOK {
			sum.Nominal.Fill(out.Weights.Nominal, 1)
		}
		if err := r.Sink.Write(NewRecord(ev, out)); err != nil {
			return fmt.Errorf("write candidate %d: %w", sum.Seen, err)
		}

		done++
		if r.OnProgress != nil && done%every == 0 {
			r.OnProgress(done, total)
		}
		return nil
	})
	sum.Duration = time.Since(start)
	if r.OnProgress != nil {
		r.OnProgress(done, total)
	}
	if err != nil {
		return sum, err
	}

	logger.Info("run finished",
		"candidates", sum.Seen,
		"weighted", sum.Weighted,
		"fraction", sum.Fraction(),
		"duration", sum.Duration)
	return sum, nil
}
