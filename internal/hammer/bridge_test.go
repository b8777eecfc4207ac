package hammer_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/raphaelgruber/rdxrw/internal/decay"
	"github.com/raphaelgruber/rdxrw/internal/hammer"
	"github.com/raphaelgruber/rdxrw/internal/hammer/hammertest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// syncBuffer guards a log buffer shared with the bridge.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func dialFake(t *testing.T, fake *hammertest.Fake, timeout time.Duration) (*hammer.Bridge, *syncBuffer) {
	t.Helper()
	srv, url := hammertest.NewServer(fake)
	t.Cleanup(srv.Close)

	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	b, err := hammer.Dial(context.Background(), hammer.BridgeConfig{URL: url, Timeout: timeout, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, logs
}

func TestBridgeRoundTrip(t *testing.T) {
	fake := hammertest.New()
	b, logs := dialFake(t, fake, 0)
	ctx := context.Background()

	setup := runSetup(t)
	require.NoError(t, hammer.Prepare(ctx, b, setup))
	require.NotNil(t, fake.Setup())
	assert.Equal(t, setup.Options, fake.Setup().Options)
	assert.Equal(t, setup.Variations(), fake.Setup().Variations())

	w := hammer.NewWeigher(b, setup, nil)
	got, err := w.Weigh(ctx, testGraph())
	require.NoError(t, err)

	assert.Equal(t, 1.5, got.Nominal)
	assert.InDelta(t, 1.12, got.Variations[11], 1e-12)

	g := fake.Graph()
	require.NotNil(t, g)
	assert.Equal(t, testGraph().Particles(), g.Particles())
	assert.Equal(t, testGraph().Vertices(), g.Vertices())

	// Only the nominal weight is logged; variation calls are quiet.
	assert.Equal(t, 1, strings.Count(logs.String(), "computing weight"))
	assert.NotEmpty(t, b.SessionID())
}

func TestBridgeRemoteErrorIsRejection(t *testing.T) {
	fake := hammertest.New()
	fake.Errors[hammer.MethodAddProcess] = errors.New("decay not in included list")
	b, _ := dialFake(t, fake, 0)

	_, err := b.AddProcess(context.Background(), testGraph())
	var remote *hammer.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, hammer.MethodAddProcess, remote.Method)
	assert.Contains(t, remote.Message, "decay not in included list")

	w := hammer.NewWeigher(b, runSetup(t), nil)
	_, err = w.Weigh(context.Background(), testGraph())
	assert.ErrorIs(t, err, hammer.ErrRejected)
}

func TestBridgeNaNWeight(t *testing.T) {
	fake := hammertest.New()
	fake.Weigh = func(string, *decay.Graph) (float64, error) { return math.NaN(), nil }
	b, _ := dialFake(t, fake, 0)

	got, err := b.Weight(context.Background(), hammer.NominalScheme)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got))
}

func TestBridgeCancelClosesSession(t *testing.T) {
	release := make(chan struct{})
	fake := hammertest.New()
	fake.Weigh = func(string, *decay.Graph) (float64, error) {
		<-release
		return 1, nil
	}
	b, _ := dialFake(t, fake, 0)
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := b.Weight(ctx, hammer.NominalScheme)
	assert.ErrorIs(t, err, hammer.ErrSession)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = b.Weight(context.Background(), hammer.NominalScheme)
	assert.ErrorIs(t, err, hammer.ErrSession)
}

func TestBridgeTimeout(t *testing.T) {
	release := make(chan struct{})
	fake := hammertest.New()
	fake.Weigh = func(string, *decay.Graph) (float64, error) {
		<-release
		return 1, nil
	}
	b, _ := dialFake(t, fake, 20*time.Millisecond)
	defer close(release)

	_, err := b.Weight(context.Background(), hammer.NominalScheme)
	assert.ErrorIs(t, err, hammer.ErrSession)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDialFailure(t *testing.T) {
	_, err := hammer.Dial(context.Background(), hammer.BridgeConfig{URL: "ws://127.0.0.1:1/hammer"})
	assert.ErrorIs(t, err, hammer.ErrSession)
}
