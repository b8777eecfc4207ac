package truth

import (
	"strconv"
	"strings"

	"github.com/raphaelgruber/rdxrw/internal/pdg"
)

// Signature is the absolute-code shape of a candidate's truth decay: the
// lepton family, the B and each leading hadron followed by its daughters.
type Signature struct {
	IsTau  bool
	B      int
	Chains [Hadrons][1 + Daughters]int
}

// Signature returns the decay signature of e.
func (e Event) Signature() Signature {
	s := Signature{IsTau: e.IsTau, B: pdg.Abs(e.BID)}
	for i, h := range e.Hadrons {
		s.Chains[i][0] = pdg.Abs(h.ID)
		for j, gd := range e.GrandDaughters[i] {
			s.Chains[i][1+j] = pdg.Abs(gd.ID)
		}
	}
	return s
}

// String renders s with particle names, one hadron chain at a time.
func (s Signature) String() string {
	var b strings.Builder
	b.WriteString(pdg.Name(s.B))
	b.WriteString(" ->")
	for _, chain := range s.Chains {
		if chain[0] == pdg.Placeholder {
			continue
		}
		b.WriteString(" [")
		b.WriteString(pdg.Name(chain[0]))
		for _, gd := range chain[1:] {
			if gd == pdg.Placeholder {
				continue
			}
			b.WriteString(" ")
			b.WriteString(pdg.Name(gd))
		}
		b.WriteString("]")
	}
	if s.IsTau {
		b.WriteString(" tau nu")
	} else {
		b.WriteString(" mu nu")
	}
	return b.String()
}

// Key returns a stable identifier for s, used when persisting frequencies.
func (s Signature) Key() string {
	var b strings.Builder
	if s.IsTau {
		b.WriteString("1")
	} else {
		b.WriteString("0")
	}
	writeInt(&b, s.B)
	for _, chain := range s.Chains {
		for _, id := range chain {
			writeInt(&b, id)
		}
	}
	return b.String()
}

func writeInt(b *strings.Builder, v int) {
	b.WriteByte('_')
	b.WriteString(strconv.Itoa(v))
}
