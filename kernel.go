package segfx

import (
	"fmt"

	"github.com/soypat/geometry/ms2"
)

// Sample is the distortion kernel. It returns the position in the undistorted
// content that is drawn at pixel p. bounds is the content's bounding rectangle,
// flat holds the segments in wire form (see [AppendFlat]) and verticalOffset
// slides the segment geometry upwards relative to the content.
//
// Sample is a pure function of its arguments and is safe for concurrent use.
// It returns p unchanged when flat holds no segments.
func Sample(p ms2.Vec, bounds ms2.Box, flat []float32, verticalOffset float32) ms2.Vec {
	n := len(flat) / FlatStride
	if n == 0 {
		return p
	}
	x := p.X
	s := p.Y + verticalOffset // Position along the segment track.
	if s < bounds.Min.Y {
		return ms2.Vec{X: x, Y: s}
	}
	width := bounds.Max.X - bounds.Min.X
	centerX := bounds.Min.X + width/2

	// Band 0 hangs from the top edge of the content.
	topA := bounds.Min
	topB := ms2.Vec{X: bounds.Max.X, Y: bounds.Min.Y}
	srcTop := bounds.Min.Y
	for i := 0; i <= n; i++ {
		var botA, botB ms2.Vec
		var scale float32 = 1
		if i < n {
			f := flat[i*FlatStride : i*FlatStride+FlatStride]
			botA = ms2.Vec{X: f[0], Y: f[1]}
			botB = ms2.Vec{X: f[2], Y: f[3]}
			scale = f[4]
		} else {
			// Tail band between the last edge and the content bottom.
			botA = ms2.Vec{X: bounds.Min.X, Y: bounds.Max.Y}
			botB = bounds.Max
		}
		height := edgeRefY(botA, botB) - edgeRefY(topA, topB)
		yB := edgeYAt(botA, botB, x)
		if s < yB {
			yT := edgeYAt(topA, topB, x)
			var t float32
			if den := yB - yT; absf(den) > epstol {
				t = (s - yT) / den
			}
			cT, wT := edgeFrame(topA, topB, width)
			cB, wB := edgeFrame(botA, botB, width)
			c := mixf(cT, cB, t)
			w := mixf(wT, wB, t)
			var u float32
			if absf(w) > epstol {
				u = (x - c) / w
			}
			return ms2.Vec{
				X: centerX + u*width,
				Y: srcTop + scale*t*height,
			}
		}
		srcTop += scale * height
		topA, topB = botA, botB
	}
	// Below the content bottom content continues undistorted.
	return ms2.Vec{X: x, Y: srcTop + s - bounds.Max.Y}
}

// Effect gathers the arguments of the distortion kernel for a single piece of
// content. It is rebuilt by callers whenever segments or the offset change.
type Effect struct {
	// Bounds is the bounding rectangle of the content being distorted.
	Bounds ms2.Box
	// Segments are the segments in wire form, see [AppendFlat].
	Segments []float32
	// VerticalOffset slides the segments over the content. Animate it to scroll content through the segments.
	VerticalOffset float32
}

// ArgsLen returns the length of the kernel argument buffer for n segments.
func ArgsLen(n int) int { return 4 + FlatStride*n + 1 }

// GeometryEffect returns the effect of rendering content within bounds through
// segments modified by speed.
func GeometryEffect(bounds ms2.Box, segs []GeometrySegment, verticalOffset float32) Effect {
	return Effect{Bounds: bounds, Segments: Flatten(segs), VerticalOffset: verticalOffset}
}

// SegmentationEffect returns the effect of rendering content within bounds as a
// top-to-bottom series of quadrilateral segments.
//
// The first segment is built from the top-left and top-right corners of bounds
// and the edge of the first segment. Each next segment uses the previous
// segment's edge as its top edge. Below the last edge content is rendered
// undistorted down to the bottom of bounds. If segs is empty content is rendered
// unchanged. Overlapping segments are resolved in list order: a segment with a
// lower index occludes one with a higher index.
func SegmentationEffect(bounds ms2.Box, segs []SegmentationSegment, verticalOffset float32) Effect {
	return Effect{Bounds: bounds, Segments: Flatten(segs), VerticalOffset: verticalOffset}
}

// NumSegments returns the number of segments in the effect.
func (e Effect) NumSegments() int { return len(e.Segments) / FlatStride }

// Sample evaluates the distortion kernel at p. See [Sample].
func (e Effect) Sample(p ms2.Vec) ms2.Vec {
	return Sample(p, e.Bounds, e.Segments, e.VerticalOffset)
}

// Validate checks the effect's segment buffer and bounds.
func (e Effect) Validate() error {
	sz := e.Bounds.Size()
	if !(sz.X > 0) || !(sz.Y > 0) {
		return fmt.Errorf("effect bounds must have positive size, got %v", sz)
	}
	segs, err := ParseFlat[float32](nil, e.Segments)
	if err != nil {
		return err
	}
	return ValidateSegments(segs)
}

// AppendArgs appends the kernel argument buffer to dst: the bounding rectangle
// as x, y, width, height followed by the flat segments and the vertical offset.
func (e Effect) AppendArgs(dst []float32) []float32 {
	sz := e.Bounds.Size()
	dst = append(dst, e.Bounds.Min.X, e.Bounds.Min.Y, sz.X, sz.Y)
	dst = append(dst, e.Segments...)
	return append(dst, e.VerticalOffset)
}

// ParseArgs parses a kernel argument buffer as written by [Effect.AppendArgs].
// The returned effect's Segments alias args.
func ParseArgs(args []float32) (Effect, error) {
	if len(args) < ArgsLen(0) || (len(args)-ArgsLen(0))%FlatStride != 0 {
		return Effect{}, fmt.Errorf("invalid kernel argument buffer length %d", len(args))
	}
	last := len(args) - 1
	return Effect{
		Bounds:         ms2.NewBox(args[0], args[1], args[0]+args[2], args[1]+args[3]),
		Segments:       args[4:last:last],
		VerticalOffset: args[last],
	}, nil
}
