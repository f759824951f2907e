package cli

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	css "github.com/mazznoer/csscolorparser"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/segfx"
	"github.com/soypat/segfx/glrender"
	"github.com/soypat/segfx/segfxaux"
)

const (
	variantGeometry     = "geometry"
	variantSegmentation = "segmentation"
	defaultWidth        = 800
	defaultHeight       = 600
)

// scene describes content and the segments it is drawn through.
type scene struct {
	Variant string  `toml:"variant"`
	Width   int     `toml:"width"`
	Height  int     `toml:"height"`
	Offset  float32 `toml:"offset"`
	// Speed animates the offset in pixels per second.
	Speed    float32  `toml:"speed"`
	Sampling string   `toml:"sampling"`
	Image    string   `toml:"image"`
	Text     []string `toml:"text"`
	FontSize float64  `toml:"font_size"`
	// Grid draws a checkerboard of the given cell size instead of text.
	Grid          int            `toml:"grid"`
	Foreground    string         `toml:"foreground"`
	Background    string         `toml:"background"`
	BackgroundEnd string         `toml:"background_end"`
	Segments      []sceneSegment `toml:"segment"`

	// dir resolves relative image paths.
	dir string
}

type sceneSegment struct {
	A     []float32 `toml:"a"`
	B     []float32 `toml:"b"`
	Scale float32   `toml:"scale"`
}

func loadScene(path string) (*scene, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	sc, err := decodeScene(fp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

func decodeScene(r io.Reader) (*scene, error) {
	var sc scene
	md, err := toml.NewDecoder(r).Decode(&sc)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown scene keys %v", undecoded)
	}
	if sc.Variant == "" {
		sc.Variant = variantGeometry
	}
	if sc.Variant != variantGeometry && sc.Variant != variantSegmentation {
		return nil, fmt.Errorf("unknown variant %q", sc.Variant)
	}
	_, err = glrender.ParseSampling(sc.Sampling)
	if err != nil {
		return nil, err
	}
	if sc.Width < 0 || sc.Height < 0 {
		return nil, errors.New("negative scene size")
	}
	return &sc, nil
}

// edges converts scene segments to edges and modifiers. A missing scale is 1.
func (sc *scene) edges() ([]segfx.Edge, []float32, error) {
	edges := make([]segfx.Edge, len(sc.Segments))
	scales := make([]float32, len(sc.Segments))
	var errs []error
	for i, seg := range sc.Segments {
		if len(seg.A) != 2 {
			errs = append(errs, fmt.Errorf("segment %d: point a requires 2 coordinates", i))
			continue
		}
		a := ms2.Vec{X: seg.A[0], Y: seg.A[1]}
		switch len(seg.B) {
		case 0:
			edges[i] = segfx.Node(a)
		case 2:
			edges[i] = segfx.Bar(a, ms2.Vec{X: seg.B[0], Y: seg.B[1]})
		default:
			errs = append(errs, fmt.Errorf("segment %d: point b requires 2 coordinates", i))
		}
		scales[i] = seg.Scale
		if scales[i] == 0 {
			scales[i] = 1
		}
	}
	return edges, scales, errors.Join(errs...)
}

// effect returns the scene's effect over content of the given size.
func (sc *scene) effect(width, height int, offset float32) (segfx.Effect, error) {
	edges, scales, err := sc.edges()
	if err != nil {
		return segfx.Effect{}, err
	}
	bounds := ms2.NewBox(0, 0, float32(width), float32(height))
	var e segfx.Effect
	if sc.Variant == variantSegmentation {
		segs := make([]segfx.SegmentationSegment, len(edges))
		for i := range edges {
			segs[i] = segfx.SegmentationSegment{Edge: edges[i], Scale: segfx.ContentScale(scales[i])}
		}
		e = segfx.SegmentationEffect(bounds, segs, offset)
	} else {
		segs := make([]segfx.GeometrySegment, len(edges))
		for i := range edges {
			segs[i] = segfx.GeometrySegment{Edge: edges[i], Scale: segfx.Speed(scales[i])}
		}
		e = segfx.GeometryEffect(bounds, segs, offset)
	}
	return e, e.Validate()
}

func (sc *scene) sampling() glrender.Sampling {
	s, _ := glrender.ParseSampling(sc.Sampling) // Checked on decode.
	return s
}

// content loads or generates the scene content.
func (sc *scene) content() (image.Image, error) {
	if sc.Image != "" {
		path := sc.Image
		if !filepath.IsAbs(path) {
			path = filepath.Join(sc.dir, path)
		}
		fp, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer fp.Close()
		img, _, err := image.Decode(fp)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		return img, nil
	}
	width, height := sc.size(nil)
	fg, err := parseColor(sc.Foreground, color.Black)
	if err != nil {
		return nil, err
	}
	bg, err := parseColor(sc.Background, color.White)
	if err != nil {
		return nil, err
	}
	var bgEnd color.Color
	if sc.BackgroundEnd != "" {
		bgEnd, err = parseColor(sc.BackgroundEnd, nil)
		if err != nil {
			return nil, err
		}
	}
	if sc.Grid > 0 {
		return segfxaux.GridContent(width, height, sc.Grid, fg, bg), nil
	}
	return segfxaux.TextContent(segfxaux.TextConfig{
		Width:         width,
		Height:        height,
		Lines:         sc.Text,
		FontSize:      sc.FontSize,
		Foreground:    fg,
		Background:    bg,
		BackgroundEnd: bgEnd,
	})
}

// size returns the output size. Unset dimensions take the content size or defaults.
func (sc *scene) size(content image.Image) (width, height int) {
	width, height = sc.Width, sc.Height
	if content != nil {
		sz := content.Bounds().Size()
		width, height = cmp.Or(width, sz.X), cmp.Or(height, sz.Y)
	}
	return cmp.Or(width, defaultWidth), cmp.Or(height, defaultHeight)
}

// parseColor parses a CSS color string. Empty strings return def.
func parseColor(s string, def color.Color) (color.Color, error) {
	if s == "" {
		return def, nil
	}
	c, err := css.Parse(s)
	if err != nil {
		return nil, err
	}
	return color.NRGBA{
		R: uint8(255*c.R + 0.5),
		G: uint8(255*c.G + 0.5),
		B: uint8(255*c.B + 0.5),
		A: uint8(255*c.A + 0.5),
	}, nil
}
