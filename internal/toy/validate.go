package toy

import (
	"context"
	"time"

	"github.com/raphaelgruber/rdxrw/internal/reweight"
)

// Validate runs up to limit generated candidates through p and summarises
// their nominal weights. A non-positive limit runs the whole grid.
func Validate(ctx context.Context, p *reweight.Pipeline, g *Generator, limit int) (reweight.Summary, error) {
	start := time.Now()
	sum := reweight.Summary{Nominal: reweight.NewSummaryHist()}

	for n := 0; limit <= 0 || n < limit; n++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		ev, ok := g.Next()
		if !ok {
			break
		}
		out, err := p.ProcessInput(ctx, ev.Input(), &sum.Counters)
		if err != nil {
			return sum, err
		}
		if out.EngineOK {
			sum.Nominal.Fill(out.Weights.Nominal, 1)
		}
	}

	sum.Duration = time.Since(start)
	return sum, nil
}
