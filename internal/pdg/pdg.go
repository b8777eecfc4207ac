// Package pdg implements the particle type-code rules used when rebuilding
// simulated semileptonic B decays from flat truth records.
package pdg

import (
	"errors"
	"fmt"
	"slices"

	"go-hep.org/x/hep/heppdt"
)

// Type codes referenced by the reweighting pipeline.
const (
	Placeholder  = 0
	Muon         = 13
	MuonNeutrino = 14
	Tau          = 15
	TauNeutrino  = 16
	Photon       = 22
	B0           = 511
	BPlus        = 521
)

// ErrZeroCode is returned when a lepton family has to be derived from a zero
// type code, which carries no charge sign.
var ErrZeroCode = errors.New("type code is zero")

var legalB = []int{B0, BPlus}

// Abs returns the magnitude of a type code.
func Abs(id int) int {
	if id < 0 {
		return -id
	}
	return id
}

// Digit returns the n-th decimal digit of |id|, counting the units digit as 1.
func Digit(id, n int) int {
	a := Abs(id)
	for range n - 1 {
		a /= 10
	}
	return a % 10
}

// IsLegalB reports whether id is a charged or neutral B meson.
func IsLegalB(id int) bool {
	return slices.Contains(legalB, Abs(id))
}

// IsDMeson reports whether id is a charm meson (hundreds digit 4).
func IsDMeson(id int) bool {
	return Digit(id, 3) == 4
}

// IsDstLike reports whether id is a charm meson that decays further in the
// truth record: anything but the ground-state pseudoscalars D0, D+ and Ds.
func IsDstLike(id int) bool {
	if !IsDMeson(id) {
		return false
	}
	a := Abs(id)
	return a%10 != 1 || a/1000 != 0
}

// IsPhoton reports whether id is the photon code.
func IsPhoton(id int) bool {
	return id == Photon
}

// FixBID flips the B code when it carries the same sign as the D code.
// The simulation records B with the charge convention of the opposite
// flavour. The result always has the opposite sign to a non-zero D code,
// so applying the fix again with the same D code changes nothing.
func FixBID(bID, dID int) int {
	if bID*dID > 0 {
		return -bID
	}
	return bID
}

// CheckLeptonCode returns ErrZeroCode when mu cannot seed lepton derivation.
func CheckLeptonCode(mu int) error {
	if mu == 0 {
		return fmt.Errorf("derive lepton codes: %w", ErrZeroCode)
	}
	return nil
}

func withSign(mu, code int) int {
	switch {
	case mu > 0:
		return code
	case mu < 0:
		return -code
	}
	panic("pdg: lepton code derived from zero type code")
}

// TauID returns the tau code with the charge sign of mu.
func TauID(mu int) int { return withSign(mu, Tau) }

// MuID returns the muon code with the charge sign of mu.
func MuID(mu int) int { return withSign(mu, Muon) }

// NeutrinoID returns the primary neutrino code for the lepton family.
func NeutrinoID(mu int, isTau bool) int {
	if isTau {
		return withSign(mu, -TauNeutrino)
	}
	return withSign(mu, -MuonNeutrino)
}

// TauNuMuID returns the muon neutrino code of the secondary tau decay.
func TauNuMuID(mu int) int { return withSign(mu, -MuonNeutrino) }

// TauNuTauID returns the tau neutrino code of the secondary tau decay.
func TauNuTauID(mu int) int { return withSign(mu, TauNeutrino) }

// Name returns a printable name for the magnitude of id.
func Name(id int) string {
	if id == Placeholder {
		return "None"
	}
	a := Abs(id)
	if p := heppdt.ParticleByID(heppdt.PID(a)); p != nil {
		return fmt.Sprintf("%s (%d)", p.Name, a)
	}
	return fmt.Sprintf("Unknown (%d)", a)
}
