// Package hammertest provides an in-process weighting engine and a bridge
// server for tests.
package hammertest

import (
	"context"
	"strings"
	"sync"

	"github.com/raphaelgruber/rdxrw/internal/decay"
	"github.com/raphaelgruber/rdxrw/internal/hammer"
)

// WeightFunc computes the weight of the submitted graph under scheme.
type WeightFunc func(scheme string, g *decay.Graph) (float64, error)

// Fake is a scriptable engine session. The zero value is not usable; call New.
type Fake struct {
	mu sync.Mutex

	// Handle is returned by AddProcess.
	Handle int64

	// Errors injected per method name.
	Errors map[string]error

	// Weigh computes weights. The default returns 1.5 for the nominal
	// scheme and 1 + i/100 for the i-th variation.
	Weigh WeightFunc

	setup  *hammer.RunSetup
	graph  *decay.Graph
	calls  []string
	closed bool
}

var _ hammer.Session = (*Fake)(nil)

// New returns a fake that accepts every decay.
func New() *Fake {
	return &Fake{Handle: 1, Errors: make(map[string]error), Weigh: DefaultWeigh}
}

// DefaultWeigh is the weight function of New.
func DefaultWeigh(scheme string, _ *decay.Graph) (float64, error) {
	if scheme == hammer.NominalScheme {
		return 1.5, nil
	}
	var i int
	for _, r := range strings.TrimPrefix(scheme, hammer.NominalScheme+"Var") {
		i = i*10 + int(r-'0')
	}
	return 1 + float64(i)/100, nil
}

func (f *Fake) record(ctx context.Context, method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.Errors[method]
}

func (f *Fake) Configure(ctx context.Context, setup hammer.RunSetup) error {
	if err := f.record(ctx, hammer.MethodConfigure); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setup = &setup
	return nil
}

func (f *Fake) InitRun(ctx context.Context) error {
	return f.record(ctx, hammer.MethodInitRun)
}

func (f *Fake) InitEvent(ctx context.Context) error {
	if err := f.record(ctx, hammer.MethodInitEvent); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.graph = nil
	return nil
}

func (f *Fake) AddProcess(ctx context.Context, g *decay.Graph) (int64, error) {
	if err := f.record(ctx, hammer.MethodAddProcess); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.graph = g
	return f.Handle, nil
}

func (f *Fake) ProcessEvent(ctx context.Context) error {
	return f.record(ctx, hammer.MethodProcessEvent)
}

func (f *Fake) Weight(ctx context.Context, scheme string) (float64, error) {
	if err := f.record(ctx, hammer.MethodGetWeight); err != nil {
		return 0, err
	}
	f.mu.Lock()
	g, weigh := f.graph, f.Weigh
	f.mu.Unlock()
	return weigh(scheme, g)
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Calls returns the method names received so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Count returns how often method was called.
func (f *Fake) Count(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == method {
			n++
		}
	}
	return n
}

// Setup returns the last configured run setup.
func (f *Fake) Setup() *hammer.RunSetup {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setup
}

// Graph returns the graph of the current event.
func (f *Fake) Graph() *decay.Graph {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.graph
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
