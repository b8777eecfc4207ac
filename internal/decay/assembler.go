package decay

import (
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/rdxrw/internal/particle"
	"github.com/raphaelgruber/rdxrw/internal/pdg"
	"github.com/raphaelgruber/rdxrw/internal/truth"
)

// State is the assembly stage a candidate reached.
type State int

const (
	StateStart State = iota
	StateParticlesBuilt
	StatePrimaryVertexAdded
	StateDDaughterVertexAdded
	StateSecondaryVertexAdded
	StateValidated
	StateAccepted
	StateRejectedBadKinematics
)

var stateNames = map[State]string{
	StateStart:                 "start",
	StateParticlesBuilt:        "particles_built",
	StatePrimaryVertexAdded:    "primary_vertex_added",
	StateDDaughterVertexAdded:  "d_daughter_vertex_added",
	StateSecondaryVertexAdded:  "secondary_vertex_added",
	StateValidated:             "validated",
	StateAccepted:              "accepted",
	StateRejectedBadKinematics: "rejected_bad_kinematics",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// TauDecay holds the secondary leptons of tau -> mu nu nu.
type TauDecay struct {
	Mu, NuMu, NuTau particle.Record
}

// Input is the identity-fixed particle content of one candidate.
type Input struct {
	B, D, Lepton, Neutrino particle.Record
	DDaughters             [truth.Daughters]particle.Record
	Photons                particle.Photons

	// Tau is set only for tau candidates.
	Tau *TauDecay
}

// FromEvent builds the assembler input from a truth record: the B code is
// sign-fixed against the D, and lepton codes are derived from the observed
// muon code. It returns pdg.ErrZeroCode when the muon code is zero.
func FromEvent(ev truth.Event, softThreshold float64) (Input, error) {
	if err := pdg.CheckLeptonCode(ev.MuID); err != nil {
		return Input{}, err
	}

	d := ev.Hadrons[0]
	in := Input{
		B:        ev.B.Record(pdg.FixBID(ev.BID, d.ID)),
		D:        d.Record(),
		Neutrino: ev.Neutrino.Record(pdg.NeutrinoID(ev.MuID, ev.IsTau)),
		Photons:  particle.NewPhotons(ev.Photons, softThreshold),
	}
	for i, gd := range ev.GrandDaughters[0] {
		in.DDaughters[i] = gd.Record()
	}

	if ev.IsTau {
		in.Lepton = ev.Tau.Record(pdg.TauID(ev.MuID))
		in.Tau = &TauDecay{
			Mu:    ev.Mu.Record(pdg.MuID(ev.MuID)),
			NuMu:  ev.TauNuMu.Record(pdg.TauNuMuID(ev.MuID)),
			NuTau: ev.TauNuTau.Record(pdg.TauNuTauID(ev.MuID)),
		}
	} else {
		in.Lepton = ev.Mu.Record(pdg.MuID(ev.MuID))
	}
	return in, nil
}

// Roles are the graph indices of the primary particles.
type Roles struct {
	B, D, Lepton, Neutrino int
}

// Result is an assembled candidate.
type Result struct {
	Graph           *Graph
	Roles           Roles
	State           State
	DVertex         bool
	SecondaryVertex bool

	// Photons is the number of radiative photons attached to the graph.
	Photons int

	// Bad lists the particles that failed kinematic validation.
	Bad []particle.Record
}

// KinematicsOK reports whether the graph may be handed to the oracle.
func (r Result) KinematicsOK() bool {
	return r.State == StateAccepted
}

// Assembler turns candidate particles into a validated decay graph.
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler creates an assembler that reports photon matches at debug
// level on logger.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

// Assemble builds B -> {D, l, nu, photons}, the D*-like daughter vertex and
// the secondary tau vertex, then validates every non-photon particle. An
// error is returned only when the graph itself cannot be built.
func (a *Assembler) Assemble(in Input) (Result, error) {
	g := NewGraph()
	res := Result{Graph: g, State: StateStart}
	checked := []particle.Record{in.B, in.D, in.Lepton, in.Neutrino}

	res.Roles = Roles{
		B:        g.AddParticle(in.B),
		D:        g.AddParticle(in.D),
		Lepton:   g.AddParticle(in.Lepton),
		Neutrino: g.AddParticle(in.Neutrino),
	}
	res.State = StateParticlesBuilt

	bChildren := []int{res.Roles.D, res.Roles.Lepton, res.Roles.Neutrino}
	bChildren = a.attachPhotons(&res, bChildren, in.Photons, in.B.ID())
	if err := g.AddVertex(res.Roles.B, bChildren); err != nil {
		return res, fmt.Errorf("primary vertex: %w", err)
	}
	res.State = StatePrimaryVertexAdded

	if pdg.IsDstLike(in.D.ID()) {
		var daughters []particle.Record
		for _, p := range in.DDaughters {
			if p.ID() == pdg.Placeholder || pdg.IsPhoton(p.ID()) {
				continue
			}
			daughters = append(daughters, p)
		}

		if len(daughters) > 0 {
			children := a.attachPhotons(&res, nil, in.Photons, in.D.ID())
			for _, p := range daughters {
				children = append(children, g.AddParticle(p))
			}
			if err := g.AddVertex(res.Roles.D, children); err != nil {
				return res, fmt.Errorf("D daughter vertex: %w", err)
			}
			checked = append(checked, daughters...)
			res.DVertex = true
			res.State = StateDDaughterVertexAdded
		}
	}

	if in.Tau != nil {
		children := a.attachPhotons(&res, nil, in.Photons, in.Lepton.ID())
		for _, p := range []particle.Record{in.Tau.Mu, in.Tau.NuMu, in.Tau.NuTau} {
			children = append(children, g.AddParticle(p))
			checked = append(checked, p)
		}
		if err := g.AddVertex(res.Roles.Lepton, children); err != nil {
			return res, fmt.Errorf("secondary vertex: %w", err)
		}
		res.SecondaryVertex = true
		res.State = StateSecondaryVertexAdded
	}

	for _, p := range checked {
		if p.Mass() < 0 {
			res.Bad = append(res.Bad, p)
		}
	}
	res.State = StateValidated

	if len(res.Bad) > 0 {
		res.State = StateRejectedBadKinematics
	} else {
		res.State = StateAccepted
	}
	return res, nil
}

func (a *Assembler) attachPhotons(res *Result, children []int, photons particle.Photons, ref int) []int {
	for _, p := range MatchPhotons(photons, ref) {
		children = append(children, res.Graph.AddParticle(p.Record))
		res.Photons++
		a.logger.Debug("attaching radiative photon",
			"mother_id", ref,
			"e", p.E(), "px", p.Px(), "py", p.Py(), "pz", p.Pz())
	}
	return children
}
