package gleval

import (
	"errors"
	"unsafe"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/segfx"
)

// Warp implements an inverse warp in vectorized form suitable for running on GPU.
type Warp interface {
	// Evaluate evaluates the warp over pos pixel positions and stores in dst
	// the content position drawn at each pixel. dst and pos must be of same length.
	//
	// userData facilitates getting data to the evaluators for use in processing.
	Evaluate(pos []ms2.Vec, dst []ms2.Vec, userData any) error
	// Bounds returns the bounding rectangle of the content being warped.
	Bounds() ms2.Box
}

// ComputeConfig configures GPU compute evaluators.
type ComputeConfig struct {
	// InvocX is the local work group size in X of the compute program.
	InvocX int
}

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("position and sample buffer length mismatch")
	errZeroInvoc            = errors.New("zero or negative invocation size")
)

// NewCPUWarp returns a [Warp] that evaluates the effect on the CPU.
func NewCPUWarp(e segfx.Effect) (*CPUWarp, error) {
	w := &CPUWarp{}
	err := w.SetEffect(e)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// CPUWarp evaluates a [segfx.Effect] with the reference kernel [segfx.Sample].
// It is safe to call Evaluate concurrently as long as SetEffect is not called.
type CPUWarp struct {
	effect segfx.Effect
}

// SetEffect replaces the effect evaluated. The effect's segment buffer is
// not copied and must not be modified while in use.
func (w *CPUWarp) SetEffect(e segfx.Effect) error {
	err := e.Validate()
	if err != nil {
		return err
	}
	w.effect = e
	return nil
}

// Effect returns the effect being evaluated.
func (w *CPUWarp) Effect() segfx.Effect { return w.effect }

// Bounds implements [Warp].
func (w *CPUWarp) Bounds() ms2.Box { return w.effect.Bounds }

// Evaluate implements [Warp].
func (w *CPUWarp) Evaluate(pos []ms2.Vec, dst []ms2.Vec, userData any) error {
	if len(pos) != len(dst) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	e := w.effect
	for i, p := range pos {
		dst[i] = segfx.Sample(p, e.Bounds, e.Segments, e.VerticalOffset)
	}
	return nil
}

// PixelCenters appends to dst the centers of the pixels in row y of a raster
// covering bounds with one pixel per unit, starting at column x0 and ending before x1.
func PixelCenters(dst []ms2.Vec, bounds ms2.Box, y, x0, x1 int) []ms2.Vec {
	py := bounds.Min.Y + float32(y) + 0.5
	for x := x0; x < x1; x++ {
		dst = append(dst, ms2.Vec{X: bounds.Min.X + float32(x) + 0.5, Y: py})
	}
	return dst
}

func elemSize[T any]() int {
	var z T
	return int(unsafe.Sizeof(z))
}
