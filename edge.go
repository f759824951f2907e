package segfx

import (
	"fmt"

	"github.com/soypat/geometry/ms2"
)

// Edge models the place where two segments meet. Vertices are given in content
// coordinates with the origin at the top-left corner and Y growing downwards.
//
// An Edge is either a node (single vertex) or a bar (two vertices). The zero
// value is a node at the origin. Edges are values: every mutator returns a new
// Edge so a bar can never be left with a single point set.
type Edge struct {
	a, b ms2.Vec
	bar  bool
}

// Node returns a single-vertex edge. The boundary is the horizontal line
// through p.Y spanning the whole content width, horizontally centered on p.X.
func Node(p ms2.Vec) Edge {
	return Edge{a: p, b: p}
}

// Bar returns a two-vertex edge. The boundary is the line through a and b.
// To model a twisted segment make sure a.X is greater than b.X, which mirrors
// the content horizontally at this edge.
func Bar(a, b ms2.Vec) Edge {
	return Edge{a: a, b: b, bar: true}
}

// IsBar reports whether the edge has two vertices.
func (e Edge) IsBar() bool { return e.bar }

// A returns the primary vertex of the edge.
func (e Edge) A() ms2.Vec { return e.a }

// B returns the secondary vertex of a bar. ok is false for nodes.
func (e Edge) B() (b ms2.Vec, ok bool) {
	if !e.bar {
		return ms2.Vec{}, false
	}
	return e.b, true
}

// WithA returns the edge with its primary vertex moved to p. The edge kind is kept.
func (e Edge) WithA(p ms2.Vec) Edge {
	if !e.bar {
		return Node(p)
	}
	return Bar(p, e.b)
}

// WithB returns a bar with the secondary vertex set to p. Nodes are promoted to bars.
func (e Edge) WithB(p ms2.Vec) Edge {
	return Bar(e.a, p)
}

// DropB collapses a bar to a node at its primary vertex. Nodes are returned unchanged.
func (e Edge) DropB() Edge {
	return Node(e.a)
}

// DropA collapses a bar to a node at its secondary vertex. Nodes are returned unchanged.
func (e Edge) DropA() Edge {
	if !e.bar {
		return e
	}
	return Node(e.b)
}

// Translate returns the edge displaced by d.
func (e Edge) Translate(d ms2.Vec) Edge {
	e.a = ms2.Add(e.a, d)
	e.b = ms2.Add(e.b, d)
	return e
}

// RefY returns the reference height of the edge, the mean Y of its vertices.
// Band heights used to advance through the content are measured between reference heights.
func (e Edge) RefY() float32 {
	return edgeRefY(e.a, e.b)
}

// YAt returns the Y coordinate of the boundary line at horizontal position x.
// Vertical bars and nodes are treated as horizontal lines through RefY.
func (e Edge) YAt(x float32) float32 {
	return edgeYAt(e.a, e.b, x)
}

// Frame returns the center and signed horizontal span of the edge. width is the
// content width, which is the span of nodes.
func (e Edge) Frame(width float32) (center, span float32) {
	return edgeFrame(e.a, e.b, width)
}

// appendFlat appends the 4 float wire form of the edge. Nodes duplicate their vertex.
func (e Edge) appendFlat(dst []float32) []float32 {
	return append(dst, e.a.X, e.a.Y, e.b.X, e.b.Y)
}

func (e Edge) validate() error {
	if !isfinite(e.a.X) || !isfinite(e.a.Y) || !isfinite(e.b.X) || !isfinite(e.b.Y) {
		return fmt.Errorf("edge has non-finite vertex %v", e)
	}
	return nil
}

func (e Edge) String() string {
	if !e.bar {
		return fmt.Sprintf("Node(%g,%g)", e.a.X, e.a.Y)
	}
	return fmt.Sprintf("Bar(%g,%g; %g,%g)", e.a.X, e.a.Y, e.b.X, e.b.Y)
}

// edgeFromFlat interprets 4 wire floats. Duplicated vertices are the canonical node encoding.
func edgeFromFlat(f []float32) Edge {
	a := ms2.Vec{X: f[0], Y: f[1]}
	b := ms2.Vec{X: f[2], Y: f[3]}
	if a == b {
		return Node(a)
	}
	return Bar(a, b)
}

// The functions below operate on raw vertices so the kernel can walk the wire
// buffer directly. Keep them in sync with the shader sources in glbuild.

func edgeRefY(a, b ms2.Vec) float32 {
	return 0.5 * (a.Y + b.Y)
}

func edgeYAt(a, b ms2.Vec, x float32) float32 {
	dx := b.X - a.X
	if absf(dx) < epstol {
		return edgeRefY(a, b)
	}
	return a.Y + (b.Y-a.Y)*(x-a.X)/dx
}

func edgeFrame(a, b ms2.Vec, width float32) (center, span float32) {
	if a == b {
		return a.X, width
	}
	return 0.5 * (a.X + b.X), b.X - a.X
}
