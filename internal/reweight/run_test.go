package reweight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/rdxrw/internal/hammer/hammertest"
	"github.com/raphaelgruber/rdxrw/internal/truth"
)

type sliceSource []truth.Event

func (s sliceSource) Entries() int64 { return int64(len(s)) }

func (s sliceSource) Each(ctx context.Context, fn func(truth.Event) error) error {
	for _, ev := range s {
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

type memorySink struct {
	rows []Record
	err  error
}

func (m *memorySink) Write(r Record) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, r)
	return nil
}

func TestNewRecord(t *testing.T) {
	ev := candidate()
	ev.Hadrons[0].P = truth.Momentum{E: 2010, Px: 0, Py: 0, Pz: 0}
	ev.Hadrons[1] = truth.Hadron{P: truth.Momentum{E: 3, Pz: 5}, ID: 211}

	t.Run("weighted", func(t *testing.T) {
		p, _ := newPipeline(t, hammertest.New())
		var c Counters
		out, err := p.Process(context.Background(), candidate(), &c)
		require.NoError(t, err)

		r := NewRecord(ev, out)
		assert.Equal(t, uint32(7), r.RunNumber)
		assert.Equal(t, uint64(1234), r.EventNumber)
		assert.InDelta(t, 0.02, r.Q2True, 1e-12)
		assert.False(t, r.IsTau)
		assert.Equal(t, int32(-423), r.DMeson1ID)
		assert.InDelta(t, 2010, r.DMeson1M, 1e-9)
		assert.Equal(t, int32(211), r.DMeson2ID)
		assert.InDelta(t, -4, r.DMeson2M, 1e-9)
		assert.True(t, r.TruthMatchOK)
		assert.True(t, r.EngineOK)
		assert.Equal(t, 1.5, r.Nominal)
		assert.Len(t, r.Variations, 24)
	})

	t.Run("rejected", func(t *testing.T) {
		p, _ := newPipeline(t, hammertest.New())
		rej := ev
		rej.Q2 = 0
		var c Counters
		out, err := p.Process(context.Background(), rej, &c)
		require.NoError(t, err)

		r := NewRecord(rej, out)
		assert.False(t, r.TruthMatchOK)
		assert.False(t, r.EngineOK)
		assert.Equal(t, 1.0, r.Nominal)
		for _, v := range r.Variations {
			assert.Equal(t, 1.0, v)
		}
	})
}

func TestRunExecute(t *testing.T) {
	rejected := candidate()
	rejected.Q2 = 100
	src := sliceSource{candidate(), rejected, candidate()}

	p, _ := newPipeline(t, hammertest.New())
	sink := &memorySink{}
	var progress [][2]int64
	run := &Run{
		Pipeline:      p,
		Source:        src,
		Sink:          sink,
		ProgressEvery: 2,
		OnProgress: func(done, total int64) {
			progress = append(progress, [2]int64{done, total})
		},
	}

	sum, err := run.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Counters{Seen: 3, Weighted: 2}, sum.Counters)
	require.Len(t, sink.rows, 3)
	assert.True(t, sink.rows[0].EngineOK)
	assert.False(t, sink.rows[1].TruthMatchOK)
	assert.Equal(t, [][2]int64{{2, 3}, {3, 3}}, progress)

	assert.Equal(t, int64(2), sum.Nominal.Entries())
	assert.InDelta(t, 1.5, sum.Nominal.XMean(), 1e-12)
}

func TestRunExecuteStopsOnSinkError(t *testing.T) {
	p, _ := newPipeline(t, hammertest.New())
	sink := &memorySink{err: errors.New("disk full")}
	run := &Run{Pipeline: p, Source: sliceSource{candidate()}, Sink: sink}

	_, err := run.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRunExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := hammertest.New()
	p, _ := newPipeline(t, fake)
	run := &Run{Pipeline: p, Source: sliceSource{candidate(), candidate()}, Sink: &memorySink{}}

	sum, err := run.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(0), sum.Seen)
	assert.Empty(t, fake.Calls())
}
