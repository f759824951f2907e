package segfxaux

import (
	"image"
	"image/color"
	"image/draw"

	math "github.com/chewxy/math32"
)

// A great portion of logic in this file taken from Esme Lamb's (@dedelala)
// excellent color manipulation work presented at Gophercon AU 2024.
// https://github.com/dedelala/disco/tree/main/color

// ColorGradient creates a color gradient from c0 at t=0 to c1 at t=1 interpolated
// in HSV space. Values of t outside [0,1] are clamped.
func ColorGradient(c0, c1 color.Color) func(t float32) color.RGBA {
	h0, s0, v0 := colorToHSV(c0)
	h1, s1, v1 := colorToHSV(c1)
	return func(t float32) color.RGBA {
		t = clamp(t, 0, 1)
		h, s, v := interpHSV(h0, s0, v0, h1, s1, v1, t)
		r, g, b := hsvToRGB(h, s, v)
		c := rgbToC(r, g, b)
		return color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 255}
	}
}

// FillGradient fills dst with a vertical gradient from c0 at the top to c1 at the bottom.
func FillGradient(dst draw.Image, c0, c1 color.Color) {
	bb := dst.Bounds()
	grad := ColorGradient(c0, c1)
	den := float32(max(1, bb.Dy()-1))
	for y := bb.Min.Y; y < bb.Max.Y; y++ {
		row := image.Rect(bb.Min.X, y, bb.Max.X, y+1)
		draw.Draw(dst, row, image.NewUniform(grad(float32(y-bb.Min.Y)/den)), image.Point{}, draw.Src)
	}
}

// GridContent returns an image of a checkerboard with square cells of
// cellSize pixels. Grids make the distortion of each band easy to see.
func GridContent(width, height, cellSize int, c0, c1 color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	cellSize = max(1, cellSize)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := c0
			if (x/cellSize+y/cellSize)%2 == 1 {
				c = c1
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func interpHSV(h0, s0, v0, h1, s1, v1, t float32) (h, s, v float32) {
	switch {
	case h1-h0 > 0.5:
		h0 += 1.0
	case h1-h0 < -0.5:
		h1 += 1.0
	}
	h = interp(h0, h1, t)
	if h > 1 {
		h -= 1
	}
	s = interp(s0, s1, t)
	v = interp(v0, v1, t)
	return h, s, v
}

func colorToHSV(c color.Color) (h, s, v float32) {
	r0, g0, b0, _ := c.RGBA()
	return rgbToHSV(float32(r0>>8)/math.MaxUint8, float32(g0>>8)/math.MaxUint8, float32(b0>>8)/math.MaxUint8)
}

// rgbToC converts r, g, and b values on the range of 0.0 to 1.0 to a
// 24 bit RGB value stored in the least significant bits of a uint32. The inputs
// are clamped to the range of 0.0 to 1.0
func rgbToC(r, g, b float32) (c uint32) {
	return uint32(clamp(r, 0, 1)*math.MaxUint8+0.5)<<16 |
		uint32(clamp(g, 0, 1)*math.MaxUint8+0.5)<<8 |
		uint32(clamp(b, 0, 1)*math.MaxUint8+0.5)
}

// hsvToRGB converts hue, saturation and brightness values on the range of 0.0
// to 1.0 to RGB floating point values on the range of 0.0 to 1.0
func hsvToRGB(h, s, v float32) (r, g, b float32) {
	var (
		c = s * v
		x = c * (1 - math.Abs(math.Mod(h*6, 2)-1))
		m = v - c
	)

	switch {
	case h >= 0 && h <= 1.0/6:
		r, g, b = c, x, 0
	case h > 1.0/6 && h <= 2.0/6:
		r, g, b = x, c, 0
	case h > 2.0/6 && h <= 3.0/6:
		r, g, b = 0, c, x
	case h > 3.0/6 && h <= 4.0/6:
		r, g, b = 0, x, c
	case h > 4.0/6 && h <= 5.0/6:
		r, g, b = x, 0, c
	case h > 5.0/6 && h <= 1.0:
		r, g, b = c, 0, x
	}

	r, g, b = r+m, g+m, b+m
	return r, g, b
}

// rgbToHSV converts red, green, and blue floating point values on the range
// 0.0 to 1.0 to hue, saturation and brightness values on the range 0.0 to 1.0
func rgbToHSV(r, g, b float32) (h, s, v float32) {
	var (
		xmax = max(r, g, b)
		xmin = min(r, g, b)
		c    = xmax - xmin
	)
	v = xmax
	switch {
	case c == 0:
		h = 0
	case v == r:
		h = (g - b) / (c * 6)
	case v == g:
		h = 1.0/3 + (b-r)/(c*6)
	case v == b:
		h = 2.0/3 + (r-g)/(c*6)
	}
	if h < 0 {
		h += 1
	}
	if xmax > 0 {
		s = c / xmax
	}
	return
}

func interp(x, y, a float32) float32 { return x*(1-a) + y*a }

func clamp(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}
