// Package ntuple reads truth candidates from ROOT ntuples and writes the
// per-candidate weight rows back, using go-hep's pure-Go ROOT I/O.
package ntuple

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/rdxrw/internal/truth"
)

// Tree names an input tree and the branch prefix of its B candidate.
type Tree struct {
	Path   string
	Prefix string
}

func (t Tree) String() string {
	return t.Path + ":" + t.Prefix
}

// DefaultTrees are the charged and neutral B trees of the reference ntuples.
var DefaultTrees = []Tree{
	{Path: "TupleBminus/DecayTree", Prefix: "b"},
	{Path: "TupleB0/DecayTree", Prefix: "b0"},
}

// ParseTree parses "path:prefix".
func ParseTree(s string) (Tree, error) {
	path, prefix, ok := strings.Cut(s, ":")
	if !ok || path == "" || prefix == "" {
		return Tree{}, fmt.Errorf("invalid tree %q (want path:prefix)", s)
	}
	return Tree{Path: strings.Trim(path, "/"), Prefix: prefix}, nil
}

// split returns the directory and the tree name of a tree path.
func split(path string) (dir, name string) {
	path = strings.Trim(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

// binding copies one branch value into an event.
type binding struct {
	name     string
	optional bool
	set      func(ev *truth.Event, v any) error
}

// bindings lists the branches read for a B candidate with the given prefix.
func bindings(prefix string) []binding {
	p := func(s string) string { return prefix + "_" + s }

	bs := []binding{
		{name: "runNumber", set: func(ev *truth.Event, v any) error {
			n, err := asUint(v)
			ev.RunNumber = uint32(n)
			return err
		}},
		{name: "eventNumber", set: func(ev *truth.Event, v any) error {
			n, err := asUint(v)
			ev.EventNumber = n
			return err
		}},
		{name: p("True_Q2"), set: func(ev *truth.Event, v any) error {
			return setFloat(&ev.Q2, v)
		}},
		{name: p("True_IsTauDecay"), set: func(ev *truth.Event, v any) error {
			f, err := asFloat(v)
			ev.IsTau = f != 0
			return err
		}},
		{name: p("TRUEID"), set: func(ev *truth.Event, v any) error {
			return setInt(&ev.BID, v)
		}},
		{name: "mu_TRUEID", set: func(ev *truth.Event, v any) error {
			return setInt(&ev.MuID, v)
		}},
	}

	bs = append(bs, momentum(p("TRUEP_"), []string{"E", "X", "Y", "Z"}, false,
		func(ev *truth.Event) *truth.Momentum { return &ev.B })...)

	leptons := []struct {
		name string
		get  func(ev *truth.Event) *truth.Momentum
	}{
		{"TrueMu", func(ev *truth.Event) *truth.Momentum { return &ev.Mu }},
		{"TrueTau", func(ev *truth.Event) *truth.Momentum { return &ev.Tau }},
		{"TrueNeutrino", func(ev *truth.Event) *truth.Momentum { return &ev.Neutrino }},
		{"TrueTauNuTau", func(ev *truth.Event) *truth.Momentum { return &ev.TauNuTau }},
		{"TrueTauNuMu", func(ev *truth.Event) *truth.Momentum { return &ev.TauNuMu }},
	}
	for _, l := range leptons {
		bs = append(bs, momentum(p(l.name+"_P"), []string{"E", "X", "Y", "Z"}, false, l.get)...)
	}

	for i := range truth.Hadrons {
		// Only the first two hadrons are guaranteed to be recorded.
		optional := i >= 2
		bs = append(bs, hadron(p(fmt.Sprintf("TrueHadron_D%d_", i)), optional,
			func(ev *truth.Event) *truth.Hadron { return &ev.Hadrons[i] })...)
	}
	for j := range truth.Daughters {
		bs = append(bs, hadron(p(fmt.Sprintf("TrueHadron_D0_GD%d_", j)), false,
			func(ev *truth.Event) *truth.Hadron { return &ev.GrandDaughters[0][j] })...)
	}

	bs = append(bs, photons(p("MCTrue_gamma_"))...)
	return bs
}

func momentum(prefix string, suffixes []string, optional bool, get func(*truth.Event) *truth.Momentum) []binding {
	fields := []func(m *truth.Momentum) *float64{
		func(m *truth.Momentum) *float64 { return &m.E },
		func(m *truth.Momentum) *float64 { return &m.Px },
		func(m *truth.Momentum) *float64 { return &m.Py },
		func(m *truth.Momentum) *float64 { return &m.Pz },
	}
	bs := make([]binding, len(fields))
	for i, field := range fields {
		bs[i] = binding{
			name:     prefix + suffixes[i],
			optional: optional,
			set: func(ev *truth.Event, v any) error {
				return setFloat(field(get(ev)), v)
			},
		}
	}
	return bs
}

func hadron(prefix string, optional bool, get func(*truth.Event) *truth.Hadron) []binding {
	bs := momentum(prefix, []string{"PE", "PX", "PY", "PZ"}, optional,
		func(ev *truth.Event) *truth.Momentum { return &get(ev).P })
	return append(bs, binding{
		name:     prefix + "ID",
		optional: optional,
		set: func(ev *truth.Event, v any) error {
			return setInt(&get(ev).ID, v)
		},
	})
}

// photons binds the radiative photon arrays. Ntuples produced without
// radiative information lack them, in which case no photon is read.
func photons(prefix string) []binding {
	arrays := []struct {
		suffix string
		get    func(ev *truth.Event) *[]float32
	}{
		{"E", func(ev *truth.Event) *[]float32 { return &ev.Photons.E }},
		{"PX", func(ev *truth.Event) *[]float32 { return &ev.Photons.Px }},
		{"PY", func(ev *truth.Event) *[]float32 { return &ev.Photons.Py }},
		{"PZ", func(ev *truth.Event) *[]float32 { return &ev.Photons.Pz }},
		{"mother_ID", func(ev *truth.Event) *[]float32 { return &ev.Photons.MotherID }},
	}
	bs := []binding{{
		name:     prefix + "ArrayLength",
		optional: true,
		set: func(ev *truth.Event, v any) error {
			return setInt(&ev.Photons.N, v)
		},
	}}
	for _, a := range arrays {
		bs = append(bs, binding{
			name:     prefix + a.suffix,
			optional: true,
			set: func(ev *truth.Event, v any) error {
				xs, err := asFloats(v)
				*a.get(ev) = xs
				if a.suffix == "E" && ev.Photons.N == 0 {
					ev.Photons.N = len(xs)
				}
				return err
			},
		})
	}
	return bs
}
