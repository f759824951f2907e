package glrender

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
)

// Sampling selects how content is resampled at warped positions.
type Sampling uint8

const (
	// SamplingBilinear interpolates the four texels around a position.
	SamplingBilinear Sampling = iota
	// SamplingNearest picks the texel closest to a position.
	SamplingNearest
)

func (s Sampling) String() string {
	switch s {
	case SamplingBilinear:
		return "bilinear"
	case SamplingNearest:
		return "nearest"
	}
	return fmt.Sprintf("Sampling(%d)", uint8(s))
}

// ParseSampling parses the names returned by [Sampling.String].
func ParseSampling(s string) (Sampling, error) {
	switch s {
	case "bilinear", "":
		return SamplingBilinear, nil
	case "nearest":
		return SamplingNearest, nil
	}
	return 0, fmt.Errorf("unknown sampling %q", s)
}

// sampleAt samples layer at the continuous texel position (x,y) where texel
// centers lie on integer coordinates. Positions off the layer are transparent.
func (s Sampling) sampleAt(layer *image.RGBA, x, y float32) color.RGBA {
	if s == SamplingNearest {
		return texel(layer, int(math32.Floor(x+0.5)), int(math32.Floor(y+0.5)))
	}
	x0f := math32.Floor(x)
	y0f := math32.Floor(y)
	fx, fy := x-x0f, y-y0f
	x0, y0 := int(x0f), int(y0f)
	c00 := texel(layer, x0, y0)
	c10 := texel(layer, x0+1, y0)
	c01 := texel(layer, x0, y0+1)
	c11 := texel(layer, x0+1, y0+1)
	return color.RGBA{
		R: bilerp(c00.R, c10.R, c01.R, c11.R, fx, fy),
		G: bilerp(c00.G, c10.G, c01.G, c11.G, fx, fy),
		B: bilerp(c00.B, c10.B, c01.B, c11.B, fx, fy),
		A: bilerp(c00.A, c10.A, c01.A, c11.A, fx, fy),
	}
}

func texel(layer *image.RGBA, x, y int) color.RGBA {
	sz := layer.Rect.Size()
	if x < 0 || y < 0 || x >= sz.X || y >= sz.Y {
		return color.RGBA{}
	}
	i := y*layer.Stride + 4*x
	px := layer.Pix[i : i+4 : i+4]
	return color.RGBA{R: px[0], G: px[1], B: px[2], A: px[3]}
}

func bilerp(c00, c10, c01, c11 uint8, fx, fy float32) uint8 {
	top := float32(c00) + fx*(float32(c10)-float32(c00))
	bot := float32(c01) + fx*(float32(c11)-float32(c01))
	v := top + fy*(bot-top) + 0.5
	if v <= 0 {
		return 0
	} else if v >= 255 {
		return 255
	}
	return uint8(v)
}
