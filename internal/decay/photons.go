package decay

import "github.com/raphaelgruber/rdxrw/internal/particle"

// MatchPhotons returns the photons emitted by a particle with type code ref,
// matching the mother code against ref and its charge conjugate.
func MatchPhotons(photons particle.Photons, ref int) []particle.Photon {
	var matched []particle.Photon
	for i := range photons.Len() {
		p := photons.At(i)
		if p.MotherID == ref || p.MotherID == -ref {
			matched = append(matched, p)
		}
	}
	return matched
}
