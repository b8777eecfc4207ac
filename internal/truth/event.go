// Package truth describes the flat per-candidate simulation truth record and
// the topology filter applied before any decay is rebuilt.
package truth

import (
	"github.com/raphaelgruber/rdxrw/internal/particle"
	"github.com/raphaelgruber/rdxrw/internal/pdg"
)

// Q2 thresholds in MeV^2 below which a candidate cannot be reweighted.
const (
	MinQ2Light = 100.0 * 100.0
	MinQ2Tau   = 1700.0 * 1700.0
)

// Hadrons is the number of leading hadrons recorded per B candidate, and
// Daughters the number of recorded daughters per hadron.
const (
	Hadrons   = 3
	Daughters = 3
)

// Momentum is a truth four-momentum as stored in the ntuple.
type Momentum struct {
	E, Px, Py, Pz float64
}

// Record attaches a type code to m.
func (m Momentum) Record(id int) particle.Record {
	return particle.New(m.E, m.Px, m.Py, m.Pz, id)
}

// Hadron is a truth hadron with its type code.
type Hadron struct {
	P  Momentum
	ID int
}

// Record returns h as a particle record.
func (h Hadron) Record() particle.Record {
	return h.P.Record(h.ID)
}

// Event is the truth information of one B candidate.
type Event struct {
	RunNumber   uint32
	EventNumber uint64

	Q2    float64
	IsTau bool

	B   Momentum
	BID int

	// Mu is the final-state muon; MuID is its observed type code.
	Mu   Momentum
	MuID int

	Tau      Momentum
	Neutrino Momentum
	TauNuTau Momentum
	TauNuMu  Momentum

	// Hadrons[0] is the primary D candidate, followed by the other leading hadrons.
	Hadrons [Hadrons]Hadron

	// GrandDaughters[i] are the recorded daughters of Hadrons[i].
	GrandDaughters [Hadrons][Daughters]Hadron

	Photons particle.PhotonArrays
}

// MatchOK applies the truth-topology filter to e.
func (e Event) MatchOK() bool {
	return MatchOK(e.Q2, e.IsTau, e.BID, e.Hadrons[0].ID, e.Hadrons[1].ID, e.MuID)
}

// MatchOK reports whether a candidate has the semileptonic topology that can
// be reweighted: q2 above the lepton-family threshold, a B0 or B+ parent, a D
// meson as first daughter that is not followed by a second D meson, and a
// true muon in the final state. A false result is a routine rejection.
func MatchOK(q2 float64, isTau bool, bID, dau1ID, dau2ID, muID int) bool {
	minQ2 := MinQ2Light
	if isTau {
		minQ2 = MinQ2Tau
	}

	return q2 > minQ2 &&
		pdg.IsLegalB(bID) &&
		pdg.IsDMeson(dau1ID) && !pdg.IsDMeson(dau2ID) &&
		pdg.Abs(muID) == pdg.Muon
}

// LooseMatchOK is the filter used for decay-signature reports: it keeps any
// legal B above the q2 threshold whose first daughter is a D meson.
func LooseMatchOK(q2 float64, isTau bool, bID, dau1ID int) bool {
	minQ2 := MinQ2Light
	if isTau {
		minQ2 = MinQ2Tau
	}
	return q2 > minQ2 && pdg.IsLegalB(bID) && pdg.IsDMeson(dau1ID)
}
