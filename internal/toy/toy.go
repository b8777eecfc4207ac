// Package toy generates B -> D tau nu and B -> D* tau nu candidates on a
// uniform q2 grid in the B rest frame, for validating a weighting setup
// without simulation input. Momenta are in GeV.
package toy

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/fmom"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/raphaelgruber/rdxrw/internal/decay"
	"github.com/raphaelgruber/rdxrw/internal/particle"
)

// Masses in GeV.
const (
	BMass   = 5.27932
	B0Mass  = 5.27963
	DstMass = 2.01026
	D0Mass  = 1.86483
	TauMass = 1.77682
	PiMass  = 0.13957
)

// DefaultStep is the q2 grid spacing in GeV^2.
const DefaultStep = 0.01

// Kind selects the generated channel.
type Kind int

const (
	KindBD Kind = iota
	KindBDst
)

func (k Kind) String() string {
	switch k {
	case KindBD:
		return "BD"
	case KindBDst:
		return "BD*"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses "BD" or "BD*".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "BD":
		return KindBD, nil
	case "BD*", "BDst":
		return KindBDst, nil
	}
	return 0, fmt.Errorf("unknown toy channel %q (want BD or BD*)", s)
}

// Event is one generated candidate. Dst is set only for KindBDst.
type Event struct {
	Kind   Kind
	Q2     float64
	ThetaL float64

	B, D, Lepton, Neutrino particle.Record

	Dst *DstDecay
}

// DstDecay is the D* -> D0 pi part of a KindBDst candidate.
type DstDecay struct {
	ThetaV, Chi float64
	D0, Pi      particle.Record
}

// Input returns the candidate as assembler input. The tau is left undecayed.
func (e Event) Input() decay.Input {
	in := decay.Input{B: e.B, D: e.D, Lepton: e.Lepton, Neutrino: e.Neutrino}
	if e.Dst != nil {
		in.DDaughters[0] = e.Dst.D0
		in.DDaughters[1] = e.Dst.Pi
	}
	return in
}

// Generator walks the q2 grid from the tau threshold up to (mB0 - mD*)^2,
// drawing the decay angles uniformly.
type Generator struct {
	kind  Kind
	q2    float64
	q2Min float64
	q2Max float64
	step  float64

	thetaL distuv.Uniform
	thetaV distuv.Uniform
	chi    distuv.Uniform
}

// NewGenerator creates a generator for kind seeded with seed.
func NewGenerator(kind Kind, seed uint64) *Generator {
	src := rand.NewSource(seed)
	g := &Generator{
		kind:   kind,
		q2Min:  TauMass * TauMass,
		q2Max:  (B0Mass - DstMass) * (B0Mass - DstMass),
		step:   DefaultStep,
		thetaL: distuv.Uniform{Min: 0, Max: math.Pi, Src: src},
		thetaV: distuv.Uniform{Min: 0, Max: math.Pi, Src: src},
		chi:    distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: src},
	}
	g.Reset()
	return g
}

// SetStep changes the q2 grid spacing.
func (g *Generator) SetStep(step float64) {
	g.step = step
}

// Reset restarts the q2 grid.
func (g *Generator) Reset() {
	g.q2 = g.q2Min
}

// Len returns the number of candidates left on the grid.
func (g *Generator) Len() int {
	if g.q2 > g.q2Max {
		return 0
	}
	return int(math.Floor((g.q2Max-g.q2)/g.step)) + 1
}

// Next returns the next candidate, or false once the grid is exhausted.
func (g *Generator) Next() (Event, bool) {
	if g.q2 > g.q2Max {
		return Event{}, false
	}
	q2 := g.q2
	g.q2 += g.step
	thetaL := g.thetaL.Rand()

	switch g.kind {
	case KindBDst:
		thetaV, chi := g.thetaV.Rand(), g.chi.Rand()
		return genBDst(q2, thetaL, thetaV, chi), true
	default:
		return genBD(521, BMass, -421, D0Mass, q2, thetaL), true
	}
}

// breakup returns the daughter momentum of a two-body decay with squared
// masses m2, d1 and d2.
func breakup(m2, d1, d2 float64) float64 {
	l := m2*m2 + d1*d1 + d2*d2 - 2*(m2*d1+m2*d2+d1*d2)
	return math.Sqrt(math.Max(l, 0)) / (2 * math.Sqrt(m2))
}

func genBD(bID int, bMass float64, dID int, dMass, q2, thetaL float64) Event {
	b := fmom.NewPxPyPzE(0, 0, 0, bMass)

	pD := breakup(bMass*bMass, dMass*dMass, q2)
	d := fmom.NewPxPyPzE(0, 0, pD, math.Sqrt(pD*pD+dMass*dMass))

	w := fmom.NewPxPyPzE(-d.Px(), -d.Py(), -d.Pz(), b.E()-d.E())
	pL := breakup(q2, TauMass*TauMass, 0)
	lRest := fmom.NewPxPyPzE(pL*math.Sin(thetaL), 0, pL*math.Cos(thetaL), math.Sqrt(TauMass*TauMass+pL*pL))
	nuRest := fmom.NewPxPyPzE(-lRest.Px(), -lRest.Py(), -lRest.Pz(), pL)

	boost := fmom.BoostOf(&w)
	l := fmom.Boost(&lRest, boost)
	nu := fmom.Boost(&nuRest, boost)

	return Event{
		Kind:     KindBD,
		Q2:       q2,
		ThetaL:   thetaL,
		B:        record(&b, bID),
		D:        record(&d, dID),
		Lepton:   record(l, -15),
		Neutrino: massless(nu, 16),
	}
}

func genBDst(q2, thetaL, thetaV, chi float64) Event {
	ev := genBD(511, B0Mass, -413, DstMass, q2, thetaL)
	ev.Kind = KindBDst

	p := breakup(DstMass*DstMass, D0Mass*D0Mass, PiMass*PiMass)
	d0Rest := fmom.NewPxPyPzE(
		p*math.Sin(thetaV)*math.Cos(chi),
		p*math.Sin(thetaV)*math.Sin(chi),
		p*math.Cos(thetaV),
		math.Sqrt(D0Mass*D0Mass+p*p),
	)
	piRest := fmom.NewPxPyPzE(-d0Rest.Px(), -d0Rest.Py(), -d0Rest.Pz(), DstMass-d0Rest.E())

	dst := ev.D.P4()
	boost := fmom.BoostOf(&dst)
	ev.Dst = &DstDecay{
		ThetaV: thetaV,
		Chi:    chi,
		D0:     record(fmom.Boost(&d0Rest, boost), -421),
		Pi:     record(fmom.Boost(&piRest, boost), -211),
	}
	return ev
}

func record(p fmom.P4, id int) particle.Record {
	return particle.New(p.E(), p.Px(), p.Py(), p.Pz(), id)
}

// massless builds a massless particle, raising its energy by the smallest
// amount needed for rounding not to leave it tachyonic.
func massless(p fmom.P4, id int) particle.Record {
	e := math.Sqrt(p.Px()*p.Px() + p.Py()*p.Py() + p.Pz()*p.Pz())
	r := particle.New(e, p.Px(), p.Py(), p.Pz(), id)
	for r.Mass() < 0 {
		e = math.Nextafter(e, math.Inf(1))
		r = particle.New(e, p.Px(), p.Py(), p.Pz(), id)
	}
	return r
}
