package particle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Tuple
	}{
		{"muon", Tuple{E: 4321.123456789, Px: -12.5, Py: 0.1, Pz: 3000.000001, ID: -13}},
		{"placeholder", Tuple{}},
		{"tiny values", Tuple{E: math.SmallestNonzeroFloat64, Px: -0.0, Py: 1e-300, Pz: 1e300, ID: 22}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromTuple(tt.in).Tuple()
			if math.Float64bits(got.E) != math.Float64bits(tt.in.E) ||
				math.Float64bits(got.Px) != math.Float64bits(tt.in.Px) ||
				math.Float64bits(got.Py) != math.Float64bits(tt.in.Py) ||
				math.Float64bits(got.Pz) != math.Float64bits(tt.in.Pz) ||
				got.ID != tt.in.ID {
				t.Errorf("FromTuple(%v).Tuple() = %v, want bit-identical", tt.in, got)
			}
		})
	}
}

func TestRecordMass(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want float64
	}{
		{"at rest", New(5.0, 0, 0, 0, 521), 5.0},
		{"massless", New(3.0, 0, 0, 3.0, 22), 0},
		{"moving", New(5.0, 3.0, 0, 0, 421), 4.0},
		{"spacelike is negative", New(3.0, 0, 5.0, 0, 14), -4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.rec.Mass(), 1e-12)
		})
	}
}

func TestRecordWithID(t *testing.T) {
	r := New(1, 2, 3, 4, 13)
	s := r.WithID(-13)

	assert.Equal(t, 13, r.ID())
	assert.Equal(t, -13, s.ID())
	assert.Equal(t, r.E(), s.E())
}

func TestNewPhotons(t *testing.T) {
	arrays := PhotonArrays{
		E:        []float32{0.05, 0.1, 2.5, 0.0999},
		Px:       []float32{1, 2, 3, 4},
		Py:       []float32{0, 0, 0, 0},
		Pz:       []float32{0, 0, 0, 0},
		MotherID: []float32{521, -423, 15, 13},
		N:        4,
	}

	got := NewPhotons(arrays, DefaultSoftThreshold)

	if got.Len() != 2 {
		t.Fatalf("NewPhotons() got %d photons, want 2", got.Len())
	}
	for _, p := range got.All() {
		assert.GreaterOrEqual(t, p.E(), DefaultSoftThreshold)
		assert.Equal(t, 22, p.ID())
	}
	assert.Equal(t, -423, got.At(0).MotherID)
	assert.Equal(t, 15, got.At(1).MotherID)
}

func TestNewPhotonsClampsLength(t *testing.T) {
	arrays := PhotonArrays{
		E:        []float32{1, 1},
		Px:       []float32{0, 0},
		Py:       []float32{0, 0},
		Pz:       []float32{0},
		MotherID: []float32{511, 511},
		N:        5,
	}

	assert.Equal(t, 1, NewPhotons(arrays, DefaultSoftThreshold).Len())
	assert.Equal(t, 0, NewPhotons(PhotonArrays{}, DefaultSoftThreshold).Len())
}
