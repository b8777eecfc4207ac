package truth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchOK(t *testing.T) {
	tests := []struct {
		name  string
		q2    float64
		isTau bool
		b     int
		dau1  int
		dau2  int
		mu    int
		want  bool
	}{
		{"accepted muonic", 20000, false, -521, -423, 13, -13, true},
		{"q2 at threshold rejected", 10000.0, false, -521, -423, 13, -13, false},
		{"q2 just above threshold accepted", 10000.01, false, -521, -423, 13, -13, true},
		{"tau needs higher q2", 20000, true, -521, -423, 13, -13, false},
		{"tau above threshold", 1700*1700 + 1, true, 511, -413, 211, 13, true},
		{"bs rejected", 20000, false, 531, -431, 13, -13, false},
		{"second D rejected", 20000, false, 521, -421, 411, -13, false},
		{"first not D rejected", 20000, false, 521, 211, 13, -13, false},
		{"not a muon rejected", 20000, false, 521, -421, 13, 11, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchOK(tt.q2, tt.isTau, tt.b, tt.dau1, tt.dau2, tt.mu)
			if got != tt.want {
				t.Errorf("MatchOK() got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventMatchOK(t *testing.T) {
	ev := Event{Q2: 20000, BID: -521, MuID: -13}
	ev.Hadrons[0].ID = -423
	ev.Hadrons[1].ID = 13

	assert.True(t, ev.MatchOK())

	ev.Hadrons[1].ID = 421
	assert.False(t, ev.MatchOK())
}

func TestLooseMatchOK(t *testing.T) {
	assert.True(t, LooseMatchOK(20000, false, 521, -421))
	assert.False(t, LooseMatchOK(20000, true, 521, -421))
	assert.False(t, LooseMatchOK(20000, false, 521, 4122))
}

func TestSignature(t *testing.T) {
	ev := Event{IsTau: true, BID: -511}
	ev.Hadrons[0].ID = 413
	ev.GrandDaughters[0][0].ID = 421
	ev.GrandDaughters[0][1].ID = 211
	ev.Hadrons[1].ID = -15

	sig := ev.Signature()

	assert.Equal(t, 511, sig.B)
	assert.Equal(t, [1 + Daughters]int{413, 421, 211, 0}, sig.Chains[0])
	assert.Equal(t, 15, sig.Chains[1][0])
	assert.Equal(t, "1_511_413_421_211_0_15_0_0_0_0_0_0_0", sig.Key())
	assert.Contains(t, sig.String(), "tau nu")

	other := ev
	other.IsTau = false
	assert.NotEqual(t, sig.Key(), other.Signature().Key())
}
