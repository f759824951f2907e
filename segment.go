package segfx

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms2"
)

// FlatStride is the number of float32 values each segment flattens to: the
// edge's two vertices followed by the scale modifier.
const FlatStride = 5

// Modifier is the scalar modifier of a segment. Both modifier types below are
// a per-segment stretch multiplier and differ only in naming.
type Modifier interface{ ~float32 }

// Speed is the modifier as named by the geometry effect: how fast content
// scrolls through a segment relative to the screen.
type Speed float32

// ContentScale is the modifier as named by the segmentation effect: how
// expanded or stretched the content inside a segment is.
type ContentScale float32

// Segment models one band of rendered content. Segments are rendered under the
// previous segment (or the content's top edge), so the bottom Edge is all that
// is needed to define the band's geometry.
type Segment[M Modifier] struct {
	// Edge is the bottom edge of this segment and the top edge of the next one.
	Edge Edge
	// Scale sets how much content is read into the segment's band. Must be positive.
	Scale M
}

type (
	// GeometrySegment is a segment of the geometry effect, modified by speed.
	GeometrySegment = Segment[Speed]
	// SegmentationSegment is a segment of the segmentation effect, modified by content scale.
	SegmentationSegment = Segment[ContentScale]
)

// Validate returns a non-nil error if the segment would make the distortion kernel
// numerically degenerate.
func (s Segment[M]) Validate() error {
	scale := float32(s.Scale)
	if !isfinite(scale) || scale <= 0 {
		return fmt.Errorf("segment scale must be positive and finite, got %g", scale)
	}
	return s.Edge.validate()
}

// ValidateSegments validates all segments and joins the errors found.
func ValidateSegments[M Modifier](segs []Segment[M]) error {
	var errs []error
	for i := range segs {
		if err := segs[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("segment %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// AppendFlat appends the wire form of segs to dst and returns the result.
// Each segment contributes [FlatStride] floats: a.x, a.y, b.x, b.y, scale.
func AppendFlat[M Modifier](dst []float32, segs []Segment[M]) []float32 {
	for i := range segs {
		dst = segs[i].Edge.appendFlat(dst)
		dst = append(dst, float32(segs[i].Scale))
	}
	return dst
}

// Flatten returns the wire form of segs in a newly allocated buffer.
func Flatten[M Modifier](segs []Segment[M]) []float32 {
	return AppendFlat(make([]float32, 0, FlatStride*len(segs)), segs)
}

// ParseFlat appends the segments encoded in flat to dst. A vertex pair with
// identical points decodes to a [Node], otherwise to a [Bar].
func ParseFlat[M Modifier](dst []Segment[M], flat []float32) ([]Segment[M], error) {
	if len(flat)%FlatStride != 0 {
		return dst, fmt.Errorf("flat segment buffer length %d not a multiple of %d", len(flat), FlatStride)
	}
	for i := 0; i < len(flat); i += FlatStride {
		dst = append(dst, Segment[M]{
			Edge:  edgeFromFlat(flat[i : i+4]),
			Scale: M(flat[i+4]),
		})
	}
	return dst, nil
}

// InsertNode inserts a new node segment at p. It is placed before the first
// segment whose primary vertex lies below p so segments stay ordered top to bottom.
func InsertNode[M Modifier](segs []Segment[M], p ms2.Vec, scale M) []Segment[M] {
	idx := len(segs)
	for i := range segs {
		if segs[i].Edge.A().Y > p.Y {
			idx = i
			break
		}
	}
	seg := Segment[M]{Edge: Node(p), Scale: scale}
	segs = append(segs, Segment[M]{})
	copy(segs[idx+1:], segs[idx:])
	segs[idx] = seg
	return segs
}

// EdgePoint identifies one of the vertices of an edge.
type EdgePoint uint8

const (
	PointA EdgePoint = iota
	PointB
)

func (ep EdgePoint) String() string {
	switch ep {
	case PointA:
		return "A"
	case PointB:
		return "B"
	}
	return "EdgePoint(" + fmt.Sprint(uint8(ep)) + ")"
}

// DeleteEdgePoint deletes a vertex of segment i. Deleting a vertex of a bar
// collapses it to a node at the remaining vertex. Deleting the only vertex of
// a node removes the segment. Out of range indices return segs unchanged.
func DeleteEdgePoint[M Modifier](segs []Segment[M], i int, which EdgePoint) []Segment[M] {
	if i < 0 || i >= len(segs) {
		return segs
	}
	e := segs[i].Edge
	switch {
	case e.IsBar() && which == PointA:
		segs[i].Edge = e.DropA()
	case e.IsBar() && which == PointB:
		segs[i].Edge = e.DropB()
	case which == PointA:
		segs = append(segs[:i], segs[i+1:]...)
	}
	return segs
}

// MovePoint returns segs with vertex which of segment i moved to p. Moving
// PointB of a node promotes it to a bar.
func MovePoint[M Modifier](segs []Segment[M], i int, which EdgePoint, p ms2.Vec) []Segment[M] {
	if i < 0 || i >= len(segs) {
		return segs
	}
	if which == PointA {
		segs[i].Edge = segs[i].Edge.WithA(p)
	} else {
		segs[i].Edge = segs[i].Edge.WithB(p)
	}
	return segs
}

// NearestPoint finds the edge vertex closest to p that is within maxDist.
// ok is false if no vertex is close enough.
func NearestPoint[M Modifier](segs []Segment[M], p ms2.Vec, maxDist float32) (idx int, which EdgePoint, ok bool) {
	best := maxDist * maxDist
	for i := range segs {
		e := segs[i].Edge
		if d := ms2.Norm2(ms2.Sub(e.A(), p)); d <= best {
			best, idx, which, ok = d, i, PointA, true
		}
		if b, isBar := e.B(); isBar {
			if d := ms2.Norm2(ms2.Sub(b, p)); d <= best {
				best, idx, which, ok = d, i, PointB, true
			}
		}
	}
	return idx, which, ok
}
