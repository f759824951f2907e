package segfxaux

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// TextConfig configures text content generated by [TextContent].
type TextConfig struct {
	// Width and Height of the generated image in pixels.
	Width, Height int
	// Lines of text, drawn centered one below the other.
	Lines []string
	// FontSize in points. If zero a size filling the height is chosen.
	FontSize float64
	// TTF is the font file. If nil the Go Regular font is used.
	TTF []byte
	// Foreground is the text color. If nil black is used.
	Foreground color.Color
	// Background fills the image before drawing text. If nil the background is transparent.
	Background color.Color
	// BackgroundEnd, if set together with Background, fills a vertical gradient.
	BackgroundEnd color.Color
}

// DefaultTextLines is the content rendered when no lines are given.
var DefaultTextLines = []string{"Hello,", "world!"}

func (cfg *TextConfig) validate() error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.New("text content requires positive size")
	} else if cfg.FontSize < 0 {
		return errors.New("negative font size")
	}
	return nil
}

// TextContent rasterizes lines of text into a new image suitable as effect content.
func TextContent(cfg TextConfig) (*image.RGBA, error) {
	err := cfg.validate()
	if err != nil {
		return nil, err
	}
	lines := cfg.Lines
	if len(lines) == 0 {
		lines = DefaultTextLines
	}
	ttf := cfg.TTF
	if ttf == nil {
		ttf = goregular.TTF
	}
	f, err := freetype.ParseFont(ttf)
	if err != nil {
		return nil, err
	}
	size := cfg.FontSize
	if size == 0 {
		size = 0.6 * float64(cfg.Height) / float64(len(lines))
	}
	fg := cfg.Foreground
	if fg == nil {
		fg = color.Black
	}

	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	switch {
	case cfg.Background != nil && cfg.BackgroundEnd != nil:
		FillGradient(img, cfg.Background, cfg.BackgroundEnd)
	case cfg.Background != nil:
		draw.Draw(img, img.Bounds(), image.NewUniform(cfg.Background), image.Point{}, draw.Src)
	}

	const dpi = 72
	c := freetype.NewContext()
	c.SetDPI(dpi)
	c.SetFont(f)
	c.SetFontSize(size)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.NewUniform(fg))
	c.SetHinting(font.HintingNone)

	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: dpi})
	defer face.Close()
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	blockHeight := lineHeight * len(lines)
	y := (cfg.Height-blockHeight)/2 + metrics.Ascent.Ceil()
	for _, line := range lines {
		advance := font.MeasureString(face, line)
		x := (fixed.I(cfg.Width) - advance) / 2
		_, err = c.DrawString(line, fixed.Point26_6{X: x, Y: fixed.I(y)})
		if err != nil {
			return nil, err
		}
		y += lineHeight
	}
	return img, nil
}
