// Package segfx distorts rendered content by slicing it into a top-to-bottom
// series of quadrilateral segments. Each segment is bounded below by an [Edge]
// (a single-vertex [Node] or a two-vertex [Bar]) and carries a scale modifier that
// sets how much of the undistorted content is read into the segment's band.
//
// The distortion is an inverse warp: for every output pixel [Sample] returns the
// position in the undistorted content that should be drawn there. The same
// function is emitted as GPU shader source by package glbuild and evaluated in
// bulk by package gleval.
package segfx

import (
	"github.com/chewxy/math32"
)

const (
	// Tolerance is used to check for badly conditioned denominators
	// such as band heights and edge spans used for normalization.
	// Denominators smaller in magnitude are treated as zero.
	Tolerance = 6e-7
	epstol    = Tolerance

	// MinScale and MaxScale are the limits interactive editors clamp a
	// segment's scale modifier to. Scales must be strictly positive.
	MinScale = 0.001
	MaxScale = 5
)

// ClampScale clamps v to [MinScale, MaxScale]. NaN is mapped to 1.
func ClampScale(v float32) float32 {
	if math32.IsNaN(v) {
		return 1
	}
	return clampf(v, MinScale, MaxScale)
}

func clampf(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}

func mixf(x, y, a float32) float32 {
	return x*(1-a) + y*a
}

func absf(a float32) float32 {
	return math32.Abs(a)
}

func isfinite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
