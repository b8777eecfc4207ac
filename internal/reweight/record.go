package reweight

import (
	"github.com/raphaelgruber/rdxrw/internal/truth"
)

// Record is one output row: event identity, truth-level diagnostics and the
// weights of the candidate.
type Record struct {
	RunNumber   uint32
	EventNumber uint64

	// Q2True is the true q2 in GeV^2.
	Q2True float64
	IsTau  bool

	DMeson1ID int32
	DMeson1M  float64
	DMeson2ID int32
	DMeson2M  float64

	TruthMatchOK bool
	EngineOK     bool
	Nominal      float64
	Variations   []float64
}

// NewRecord packs a candidate and its outcome into an output row.
func NewRecord(ev truth.Event, out Outcome) Record {
	d1, d2 := ev.Hadrons[0], ev.Hadrons[1]
	return Record{
		RunNumber:    ev.RunNumber,
		EventNumber:  ev.EventNumber,
		Q2True:       ev.Q2 / 1e6,
		IsTau:        ev.IsTau,
		DMeson1ID:    int32(d1.ID),
		DMeson1M:     d1.Record().Mass(),
		DMeson2ID:    int32(d2.ID),
		DMeson2M:     d2.Record().Mass(),
		TruthMatchOK: out.TruthMatchOK,
		EngineOK:     out.EngineOK,
		Nominal:      out.Weights.Nominal,
		Variations:   out.Weights.Variations,
	}
}
