//go:build tinygo || !cgo

package gleval

import (
	"errors"
	"io"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/segfx"
)

var errNoCGO = errors.New("GPU evaluation requires CGo and is not supported on TinyGo")

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
func Init1x1GLFW() (terminate func(), err error) {
	return func() {}, errNoCGO
}

// NewComputeWarp instantiates a [Warp] that runs on the GPU.
func NewComputeWarp(glglSourceCode io.Reader, e segfx.Effect, cfg ComputeConfig) (*ComputeWarp, error) {
	return nil, errNoCGO
}

type ComputeWarp struct {
	effect segfx.Effect
}

func (w *ComputeWarp) Configure(cfg ComputeConfig) error { return errNoCGO }

func (w *ComputeWarp) SetEffect(e segfx.Effect) error { return errNoCGO }

func (w *ComputeWarp) Bounds() ms2.Box { return w.effect.Bounds }

func (w *ComputeWarp) Evaluations() uint64 { return 0 }

func (w *ComputeWarp) Delete() {}

func (w *ComputeWarp) Evaluate(pos []ms2.Vec, dst []ms2.Vec, userData any) error {
	return errNoCGO
}
