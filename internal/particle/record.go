// Package particle holds the immutable four-momentum records that make up a
// reconstructed decay.
package particle

import (
	"math"

	"go-hep.org/x/hep/fmom"
)

// Record is a four-momentum with a signed type code. The zero value is a
// placeholder particle at rest with zero energy.
type Record struct {
	p4 fmom.PxPyPzE
	id int
}

// Tuple is the packed form of a Record.
type Tuple struct {
	E, Px, Py, Pz float64
	ID            int
}

// New builds a Record. Every input is stored as given.
func New(e, px, py, pz float64, id int) Record {
	return Record{p4: fmom.NewPxPyPzE(px, py, pz, e), id: id}
}

// FromTuple builds a Record from its packed form.
func FromTuple(t Tuple) Record {
	return New(t.E, t.Px, t.Py, t.Pz, t.ID)
}

func (r Record) E() float64  { return r.p4.E() }
func (r Record) Px() float64 { return r.p4.Px() }
func (r Record) Py() float64 { return r.p4.Py() }
func (r Record) Pz() float64 { return r.p4.Pz() }
func (r Record) ID() int     { return r.id }

// P4 returns a copy of the four-momentum.
func (r Record) P4() fmom.PxPyPzE { return r.p4 }

// Tuple returns the packed form of r.
func (r Record) Tuple() Tuple {
	return Tuple{E: r.E(), Px: r.Px(), Py: r.Py(), Pz: r.Pz(), ID: r.id}
}

// WithID returns a copy of r carrying a different type code.
func (r Record) WithID(id int) Record {
	r.id = id
	return r
}

// Mass returns the signed invariant mass: negative when m^2 < 0.
func (r Record) Mass() float64 {
	m2 := r.p4.M2()
	if m2 < 0 {
		return -math.Sqrt(-m2)
	}
	return math.Sqrt(m2)
}
