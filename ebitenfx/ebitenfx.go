// Package ebitenfx draws ebiten images through segment distortion effects
// using a Kage shader.
package ebitenfx

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/soypat/segfx"
	"github.com/soypat/segfx/glbuild"
)

// MaxSegments is the most segments an effect may have to be drawn.
const MaxSegments = 32

// Kage uniform names.
const (
	uniformBounds      = "Bounds"
	uniformOffset      = "Offset"
	uniformNumSegments = "NumSegments"
	uniformSegments    = "Segments"
)

// DrawOptions configures a single [Shader.DrawImage] call.
type DrawOptions struct {
	// GeoM transforms the drawn rectangle on the destination.
	GeoM ebiten.GeoM
	// Blend is the blending mode. Zero value is source-over.
	Blend ebiten.Blend
}

// Shader draws images through a [segfx.Effect]. The zero value is not usable, use [NewShader].
type Shader struct {
	shader   *ebiten.Shader
	uniforms map[string]any
}

// NewShader compiles the Kage warp shader.
func NewShader() (*Shader, error) {
	var src bytes.Buffer
	programmer := glbuild.NewDefaultProgrammer()
	_, err := programmer.WriteKageWarp(&src, MaxSegments)
	if err != nil {
		return nil, err
	}
	shader, err := ebiten.NewShader(src.Bytes())
	if err != nil {
		return nil, fmt.Errorf("compiling kage warp: %w", err)
	}
	return &Shader{shader: shader}, nil
}

// DrawImage draws src onto dst through the effect. Effect bounds are measured
// in src pixels and must match the size of src.
func (s *Shader) DrawImage(dst, src *ebiten.Image, e segfx.Effect, opts *DrawOptions) error {
	bb := src.Bounds()
	sz := e.Bounds.Size()
	if math32.Abs(sz.X-float32(bb.Dx())) > 0.5 || math32.Abs(sz.Y-float32(bb.Dy())) > 0.5 {
		return fmt.Errorf("effect size %v does not match source image size %v", sz, bb.Size())
	}
	var err error
	s.uniforms, err = Uniforms(s.uniforms, e)
	if err != nil {
		return err
	}
	op := &ebiten.DrawRectShaderOptions{}
	if opts != nil {
		op.GeoM = opts.GeoM
		op.Blend = opts.Blend
	}
	op.Images[0] = src
	op.Uniforms = s.uniforms
	dst.DrawRectShader(bb.Dx(), bb.Dy(), s.shader, op)
	return nil
}

// Dispose releases the compiled shader.
func (s *Shader) Dispose() {
	s.shader.Deallocate()
}

// Uniforms fills dst with the Kage uniforms of the effect and returns it.
// If dst is nil a new map is allocated. Existing slices in dst are reused.
func Uniforms(dst map[string]any, e segfx.Effect) (map[string]any, error) {
	err := e.Validate()
	if err != nil {
		return dst, err
	}
	n := e.NumSegments()
	if n > MaxSegments {
		return dst, errors.New("too many segments for kage warp")
	}
	if dst == nil {
		dst = make(map[string]any, 4)
	}
	bounds, _ := dst[uniformBounds].([]float32)
	segs, _ := dst[uniformSegments].([]float32)
	if len(bounds) != 4 {
		bounds = make([]float32, 4)
	}
	if len(segs) != MaxSegments*segfx.FlatStride {
		segs = make([]float32, MaxSegments*segfx.FlatStride)
	}
	sz := e.Bounds.Size()
	bounds[0], bounds[1], bounds[2], bounds[3] = e.Bounds.Min.X, e.Bounds.Min.Y, sz.X, sz.Y
	clear(segs[copy(segs, e.Segments):])
	dst[uniformBounds] = bounds
	dst[uniformSegments] = segs
	dst[uniformOffset] = e.VerticalOffset
	dst[uniformNumSegments] = float32(n)
	return dst, nil
}
