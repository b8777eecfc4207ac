package particle

import "github.com/raphaelgruber/rdxrw/internal/pdg"

// DefaultSoftThreshold is the photon energy below which radiative photons
// are dropped, in the units of the input ntuple.
const DefaultSoftThreshold = 0.1

// Photon is a radiative photon with the type code of the particle that
// emitted it.
type Photon struct {
	Record
	MotherID int
}

// PhotonArrays are the parallel per-event photon columns of a truth record.
type PhotonArrays struct {
	E, Px, Py, Pz, MotherID []float32
	N                       int
}

// Photons is the ordered set of hard radiative photons of one event.
type Photons struct {
	items []Photon
}

// NewPhotons builds the photon collection from parallel arrays, keeping the
// input order and excluding photons with energy strictly below threshold.
// N is clamped to the shortest array.
func NewPhotons(a PhotonArrays, threshold float64) Photons {
	n := min(a.N, len(a.E), len(a.Px), len(a.Py), len(a.Pz), len(a.MotherID))
	if n <= 0 {
		return Photons{}
	}

	items := make([]Photon, 0, n)
	for i := range n {
		e := float64(a.E[i])
		if e < threshold {
			continue
		}
		items = append(items, Photon{
			Record:   New(e, float64(a.Px[i]), float64(a.Py[i]), float64(a.Pz[i]), pdg.Photon),
			MotherID: int(a.MotherID[i]),
		})
	}
	return Photons{items: items}
}

// Len returns the number of kept photons.
func (p Photons) Len() int { return len(p.items) }

// At returns the i-th kept photon.
func (p Photons) At(i int) Photon { return p.items[i] }

// All returns the kept photons in input order.
func (p Photons) All() []Photon {
	out := make([]Photon, len(p.items))
	copy(out, p.items)
	return out
}
