package reweight

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/rdxrw/internal/decay"
	"github.com/raphaelgruber/rdxrw/internal/hammer"
	"github.com/raphaelgruber/rdxrw/internal/hammer/hammertest"
	"github.com/raphaelgruber/rdxrw/internal/truth"
)

// candidate is B- -> D*0 mu- nu as recorded: B code -521, first daughter
// -423, second recorded hadron code 13, muon code -13, q2 20000.
func candidate() truth.Event {
	ev := truth.Event{
		RunNumber:   7,
		EventNumber: 1234,
		Q2:          20000,
		B:           truth.Momentum{E: 5279},
		BID:         -521,
		Mu:          truth.Momentum{E: 1000, Pz: -900},
		MuID:        -13,
		Neutrino:    truth.Momentum{E: 500, Pz: -500},
	}
	ev.Hadrons[0] = truth.Hadron{P: truth.Momentum{E: 2100, Pz: 300}, ID: -423}
	ev.Hadrons[1] = truth.Hadron{ID: 13}
	ev.GrandDaughters[0][0] = truth.Hadron{P: truth.Momentum{E: 1900, Pz: 250}, ID: -421}
	ev.GrandDaughters[0][1] = truth.Hadron{P: truth.Momentum{E: 200, Pz: 50}, ID: 111}
	return ev
}

func newPipeline(t *testing.T, fake *hammertest.Fake) (*Pipeline, *bytes.Buffer) {
	t.Helper()
	setup, err := hammer.NewRunSetup(hammer.Run2, "MeV", hammer.DefaultTables())
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewPipeline(hammer.NewWeigher(fake, setup, nil), Options{Logger: logger})
	return p, &buf
}

func assertDefaults(t *testing.T, w hammer.Weights) {
	t.Helper()
	assert.Equal(t, 1.0, w.Nominal)
	require.Len(t, w.Variations, hammer.DefaultSlots)
	for i, v := range w.Variations {
		assert.Equal(t, 1.0, v, "slot %d", i+1)
	}
}

func TestProcessAccepted(t *testing.T) {
	fake := hammertest.New()
	p, _ := newPipeline(t, fake)
	var c Counters

	out, err := p.Process(context.Background(), candidate(), &c)
	require.NoError(t, err)

	assert.True(t, out.TruthMatchOK)
	assert.True(t, out.KinematicsOK)
	assert.True(t, out.EngineOK)
	assert.Equal(t, 1.5, out.Weights.Nominal)
	assert.InDelta(t, 1.24, out.Weights.Variations[23], 1e-12)
	assert.Equal(t, Counters{Seen: 1, Weighted: 1}, c)
	assert.Equal(t, 1.0, c.Fraction())

	g := fake.Graph()
	require.NotNil(t, g)
	assert.Equal(t, 521, g.Particle(0).ID())
}

func TestProcessQ2Threshold(t *testing.T) {
	tests := []struct {
		name  string
		q2    float64
		isTau bool
		want  bool
	}{
		{"light at threshold", 10000.0, false, false},
		{"light above threshold", 10000.01, false, true},
		{"tau below threshold", 1700*1700 - 1, true, false},
		{"tau above threshold", 1700*1700 + 1, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newPipeline(t, hammertest.New())
			ev := candidate()
			ev.Q2 = tt.q2
			if tt.isTau {
				ev.IsTau = true
				ev.Tau = truth.Momentum{E: 2000, Pz: -800}
				ev.TauNuTau = truth.Momentum{E: 400, Px: 400}
				ev.TauNuMu = truth.Momentum{E: 300, Py: 300}
			}

			var c Counters
			out, err := p.Process(context.Background(), ev, &c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.TruthMatchOK)
			assert.Equal(t, tt.want, out.EngineOK)
			if !tt.want {
				assertDefaults(t, out.Weights)
			}
		})
	}
}

func TestProcessTopologyRejectionIsSilent(t *testing.T) {
	fake := hammertest.New()
	p, buf := newPipeline(t, fake)
	ev := candidate()
	ev.Hadrons[1].ID = 411

	var c Counters
	out, err := p.Process(context.Background(), ev, &c)
	require.NoError(t, err)

	assert.False(t, out.TruthMatchOK)
	assertDefaults(t, out.Weights)
	assert.Empty(t, fake.Calls())
	assert.Empty(t, buf.String())
	assert.Equal(t, Counters{Seen: 1}, c)
}

func TestProcessBadKinematics(t *testing.T) {
	fake := hammertest.New()
	p, buf := newPipeline(t, fake)
	ev := candidate()
	ev.Neutrino = truth.Momentum{E: 1, Pz: 5}

	var c Counters
	_, _ = p.Process(context.Background(), candidate(), &c)
	out, err := p.Process(context.Background(), ev, &c)
	require.NoError(t, err)

	assert.True(t, out.TruthMatchOK)
	assert.False(t, out.KinematicsOK)
	assert.False(t, out.EngineOK)
	assertDefaults(t, out.Weights)
	assert.Contains(t, buf.String(), "bad kinematics for candidate")
	assert.Contains(t, buf.String(), "candidate=2")
	assert.Equal(t, Counters{Seen: 2, Weighted: 1}, c)
}

func TestProcessEngineRejection(t *testing.T) {
	fake := hammertest.New()
	fake.Errors[hammer.MethodProcessEvent] = errors.New("amplitude failure")
	p, buf := newPipeline(t, fake)

	var c Counters
	out, err := p.Process(context.Background(), candidate(), &c)
	require.NoError(t, err)

	assert.True(t, out.KinematicsOK)
	assert.False(t, out.EngineOK)
	assertDefaults(t, out.Weights)
	assert.Contains(t, buf.String(), "engine rejected candidate")
	assert.Contains(t, buf.String(), "amplitude failure")
	assert.Equal(t, uint64(0), c.Weighted)
}

func TestProcessZeroMuonCodeIsTopologyRejection(t *testing.T) {
	ev := candidate()
	ev.MuID = 0
	fake := hammertest.New()
	p, buf := newPipeline(t, fake)

	var c Counters
	out, err := p.Process(context.Background(), ev, &c)
	require.NoError(t, err)

	assert.False(t, out.TruthMatchOK)
	assert.False(t, out.KinematicsOK)
	assert.False(t, out.EngineOK)
	assertDefaults(t, out.Weights)
	assert.Empty(t, buf.String())
	assert.Empty(t, fake.Calls())
	assert.Equal(t, Counters{Seen: 1}, c)
}

func TestProcessVariationFailures(t *testing.T) {
	fake := hammertest.New()
	fake.Weigh = func(scheme string, g *decay.Graph) (float64, error) {
		for i := 7; i <= hammer.DefaultSlots; i++ {
			if scheme == hammer.VariationScheme(i) {
				return 0, errors.New("no such scheme")
			}
		}
		return hammertest.DefaultWeigh(scheme, g)
	}
	p, _ := newPipeline(t, fake)

	var c Counters
	out, err := p.Process(context.Background(), candidate(), &c)
	require.NoError(t, err)

	assert.True(t, out.EngineOK)
	for i := 1; i <= 6; i++ {
		assert.InDelta(t, 1+float64(i)/100, out.Weights.Variations[i-1], 1e-12, "slot %d", i)
	}
	for i := 7; i <= hammer.DefaultSlots; i++ {
		assert.Equal(t, 1.0, out.Weights.Variations[i-1], "slot %d", i)
	}
}

func TestProcessSessionFailure(t *testing.T) {
	fake := hammertest.New()
	fake.Errors[hammer.MethodInitEvent] = fmt.Errorf("%w: connection reset", hammer.ErrSession)
	p, _ := newPipeline(t, fake)

	var c Counters
	_, err := p.Process(context.Background(), candidate(), &c)
	assert.ErrorIs(t, err, hammer.ErrSession)
	assert.NotErrorIs(t, err, hammer.ErrRejected)
}

func TestProcessInputSkipsTopologyFilter(t *testing.T) {
	fake := hammertest.New()
	p, _ := newPipeline(t, fake)
	ev := candidate()
	ev.Q2 = 1

	in, err := decay.FromEvent(ev, 0.1)
	require.NoError(t, err)

	var c Counters
	out, err := p.ProcessInput(context.Background(), in, &c)
	require.NoError(t, err)
	assert.True(t, out.TruthMatchOK)
	assert.True(t, out.EngineOK)
}

func TestCountersFraction(t *testing.T) {
	assert.Equal(t, 0.0, Counters{}.Fraction())
	assert.Equal(t, 0.25, Counters{Seen: 4, Weighted: 1}.Fraction())
}
