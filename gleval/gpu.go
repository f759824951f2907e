//go:build !tinygo && cgo

package gleval

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/segfx"
	"github.com/soypat/segfx/glbuild"
)

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
// It returns a termination function that should be called when user is done running loads on GPU.
func Init1x1GLFW() (terminate func(), err error) {
	_, terminate, err = glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "compute",
		Version: [2]int{4, 6},
		Width:   1,
		Height:  1,
	})
	return terminate, err
}

// NewComputeWarp instantiates a [Warp] that runs on the GPU. glglSourceCode
// is the combined source written by [glbuild.Programmer.WriteComputeWarp]
// and cfg.InvocX must match the programmer's invocation size.
// A GL context must be current on the calling thread.
func NewComputeWarp(glglSourceCode io.Reader, e segfx.Effect, cfg ComputeConfig) (*ComputeWarp, error) {
	combinedSource, err := glgl.ParseCombined(glglSourceCode)
	if err != nil {
		return nil, err
	}
	glprog, err := glgl.CompileProgram(combinedSource)
	if err != nil {
		return nil, errors.New(string(combinedSource.Compute) + "\n" + err.Error())
	}
	warp := &ComputeWarp{prog: glprog}
	err = warp.Configure(cfg)
	if err == nil {
		err = warp.SetEffect(e)
	}
	if err == nil {
		err = warp.locateUniforms()
	}
	if err != nil {
		glprog.Delete()
		return nil, err
	}
	return warp, nil
}

// ComputeWarp evaluates a [segfx.Effect] with an OpenGL compute program.
// All methods must be called from the thread owning the GL context.
type ComputeWarp struct {
	prog        glgl.Program
	effect      segfx.Effect
	invocX      int
	locBounds   int32
	locOffset   int32
	locNumSegs  int32
	evaluations uint64
}

// Configure sets the compute work group size used on dispatch.
func (w *ComputeWarp) Configure(cfg ComputeConfig) error {
	if cfg.InvocX < 1 {
		return errZeroInvoc
	}
	w.invocX = cfg.InvocX
	return nil
}

// SetEffect replaces the effect evaluated.
func (w *ComputeWarp) SetEffect(e segfx.Effect) error {
	err := e.Validate()
	if err != nil {
		return err
	}
	w.effect = e
	return nil
}

// Bounds implements [Warp].
func (w *ComputeWarp) Bounds() ms2.Box { return w.effect.Bounds }

// Evaluations returns the amount of positions evaluated during the warp's lifetime.
func (w *ComputeWarp) Evaluations() uint64 { return w.evaluations }

// Delete releases the GL program.
func (w *ComputeWarp) Delete() {
	w.prog.Delete()
}

// Evaluate implements [Warp].
func (w *ComputeWarp) Evaluate(pos []ms2.Vec, dst []ms2.Vec, userData any) error {
	if len(pos) != len(dst) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	} else if w.prog.ID() == 0 {
		return errors.New("program id is 0, did you use NewComputeWarp?")
	}
	w.prog.Bind()
	defer w.prog.Unbind()
	e := w.effect
	sz := e.Bounds.Size()
	gl.Uniform4f(w.locBounds, e.Bounds.Min.X, e.Bounds.Min.Y, sz.X, sz.Y)
	gl.Uniform1f(w.locOffset, e.VerticalOffset)
	gl.Uniform1i(w.locNumSegs, int32(e.NumSegments()))
	err := glgl.Err()
	if err != nil {
		return fmt.Errorf("setting warp uniforms: %w", err)
	}
	err = computeWarp(pos, dst, e.Segments, w.invocX)
	if err != nil {
		return err
	}
	w.evaluations += uint64(len(pos))
	return nil
}

func (w *ComputeWarp) locateUniforms() (err error) {
	w.locBounds, err = w.prog.UniformLocation(glbuild.UniformBounds + "\x00")
	if err != nil {
		return err
	}
	w.locOffset, err = w.prog.UniformLocation(glbuild.UniformOffset + "\x00")
	if err != nil {
		return err
	}
	w.locNumSegs, err = w.prog.UniformLocation(glbuild.UniformNumSegments + "\x00")
	return err
}
