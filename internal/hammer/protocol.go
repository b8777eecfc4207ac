package hammer

import (
	"encoding/json"
	"fmt"

	"github.com/raphaelgruber/rdxrw/internal/decay"
	"github.com/raphaelgruber/rdxrw/internal/particle"
)

// Subprotocol is the websocket subprotocol spoken by the engine bridge.
const Subprotocol = "hammer-bridge.v1"

// SessionHeader carries the client-chosen session id on the handshake.
const SessionHeader = "X-Rdxrw-Session"

// Bridge methods.
const (
	MethodConfigure    = "configure"
	MethodInitRun      = "initRun"
	MethodInitEvent    = "initEvent"
	MethodAddProcess   = "addProcess"
	MethodProcessEvent = "processEvent"
	MethodGetWeight    = "getWeight"
	MethodLog          = "log"
)

// Request is a client call.
type Request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Message is a server response or, when Method is set, a notification.
type Message struct {
	ID     uint64          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *WireError      `json:"error,omitempty"`
}

// WireError is an engine-side failure for one call.
type WireError struct {
	Message string `json:"message"`
}

// LogParams is the payload of a log notification.
type LogParams struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

// WireParticle is a particle record on the wire.
type WireParticle struct {
	E  float64 `json:"e"`
	Px float64 `json:"px"`
	Py float64 `json:"py"`
	Pz float64 `json:"pz"`
	ID int     `json:"id"`
}

// WireVertex is a vertex on the wire.
type WireVertex struct {
	Parent   int   `json:"parent"`
	Children []int `json:"children"`
}

// ProcessParams is the payload of addProcess.
type ProcessParams struct {
	Particles []WireParticle `json:"particles"`
	Vertices  []WireVertex   `json:"vertices"`
}

// HandleResult is the result of addProcess.
type HandleResult struct {
	Handle int64 `json:"handle"`
}

// WeightParams is the payload of getWeight.
type WeightParams struct {
	Scheme string `json:"scheme"`
}

// WeightResult is the result of getWeight. A null weight stands for NaN,
// which JSON cannot carry.
type WeightResult struct {
	Weight *float64 `json:"weight"`
}

// EncodeProcess converts a decay graph to its wire form.
func EncodeProcess(g *decay.Graph) ProcessParams {
	p := ProcessParams{
		Particles: make([]WireParticle, 0, g.Len()),
	}
	for _, r := range g.Particles() {
		p.Particles = append(p.Particles, WireParticle{E: r.E(), Px: r.Px(), Py: r.Py(), Pz: r.Pz(), ID: r.ID()})
	}
	for _, v := range g.Vertices() {
		p.Vertices = append(p.Vertices, WireVertex{Parent: v.Parent, Children: v.Children})
	}
	return p
}

// DecodeProcess rebuilds a decay graph from its wire form.
func DecodeProcess(p ProcessParams) (*decay.Graph, error) {
	g := decay.NewGraph()
	for _, wp := range p.Particles {
		g.AddParticle(particle.New(wp.E, wp.Px, wp.Py, wp.Pz, wp.ID))
	}
	for _, v := range p.Vertices {
		if err := g.AddVertex(v.Parent, v.Children); err != nil {
			return nil, fmt.Errorf("decode process: %w", err)
		}
	}
	return g, nil
}
