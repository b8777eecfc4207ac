// Package decay rebuilds the parent/child structure of a simulated B decay
// from truth particles and validates it before it is weighted.
package decay

import (
	"errors"
	"fmt"
	"slices"

	"github.com/raphaelgruber/rdxrw/internal/particle"
)

// Sentinel errors for graph construction.
var (
	ErrUnknownParticle = errors.New("unknown particle index")
	ErrParentReused    = errors.New("parent already has a vertex")
	ErrNoChildren      = errors.New("vertex has no children")
	ErrNotATree        = errors.New("vertex would break the tree")
)

// Vertex links a parent particle to its ordered children.
type Vertex struct {
	Parent   int
	Children []int
}

// Graph is an index-addressed set of particles and vertices forming a tree
// rooted at the first particle added.
type Graph struct {
	particles []particle.Record
	vertices  []Vertex
	parentOf  map[int]int
	hasVertex map[int]bool
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		parentOf:  make(map[int]int),
		hasVertex: make(map[int]bool),
	}
}

// AddParticle appends r and returns its index.
func (g *Graph) AddParticle(r particle.Record) int {
	g.particles = append(g.particles, r)
	return len(g.particles) - 1
}

// AddVertex records parent -> children. Every index must come from a prior
// AddParticle, parent must not have a vertex yet and no child may already
// have a parent or be an ancestor of parent.
func (g *Graph) AddVertex(parent int, children []int) error {
	if !g.valid(parent) {
		return fmt.Errorf("vertex parent %d: %w", parent, ErrUnknownParticle)
	}
	if g.hasVertex[parent] {
		return fmt.Errorf("vertex parent %d: %w", parent, ErrParentReused)
	}
	if len(children) == 0 {
		return fmt.Errorf("vertex parent %d: %w", parent, ErrNoChildren)
	}

	seen := make(map[int]bool, len(children))
	for _, c := range children {
		if !g.valid(c) {
			return fmt.Errorf("vertex child %d: %w", c, ErrUnknownParticle)
		}
		if _, ok := g.parentOf[c]; ok || seen[c] || c == 0 || g.isAncestor(c, parent) {
			return fmt.Errorf("vertex child %d of %d: %w", c, parent, ErrNotATree)
		}
		seen[c] = true
	}

	for _, c := range children {
		g.parentOf[c] = parent
	}
	g.hasVertex[parent] = true
	g.vertices = append(g.vertices, Vertex{Parent: parent, Children: slices.Clone(children)})
	return nil
}

func (g *Graph) valid(i int) bool {
	return i >= 0 && i < len(g.particles)
}

func (g *Graph) isAncestor(candidate, of int) bool {
	for cur := of; ; {
		if cur == candidate {
			return true
		}
		p, ok := g.parentOf[cur]
		if !ok {
			return false
		}
		cur = p
	}
}

// Len returns the number of particles.
func (g *Graph) Len() int { return len(g.particles) }

// Particle returns the particle at index i.
func (g *Graph) Particle(i int) particle.Record { return g.particles[i] }

// Particles returns a copy of all particles in index order.
func (g *Graph) Particles() []particle.Record {
	return slices.Clone(g.particles)
}

// Vertices returns a copy of all vertices in insertion order.
func (g *Graph) Vertices() []Vertex {
	out := make([]Vertex, len(g.vertices))
	for i, v := range g.vertices {
		out[i] = Vertex{Parent: v.Parent, Children: slices.Clone(v.Children)}
	}
	return out
}

// VertexOf returns the vertex whose parent is i.
func (g *Graph) VertexOf(i int) (Vertex, bool) {
	for _, v := range g.vertices {
		if v.Parent == i {
			return Vertex{Parent: v.Parent, Children: slices.Clone(v.Children)}, true
		}
	}
	return Vertex{}, false
}
