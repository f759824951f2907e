package glrender

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/segfx/gleval"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// EffectRendererConfig configures an [EffectRenderer].
type EffectRendererConfig struct {
	// Sampling selects the content resampling filter.
	Sampling Sampling
	// EvalBufferSize is the amount of positions evaluated per call to the warp.
	// It is rounded to a whole number of image rows. Must be at least 64.
	EvalBufferSize int
	// Concurrency limits the goroutines evaluating rows. Zero uses GOMAXPROCS.
	// GPU warps must be evaluated from the GL thread and require a Concurrency of 1.
	Concurrency int
}

// EffectRenderer renders content through a [gleval.Warp] into an image.
// Content is first drawn into an isolated compositing layer so effects
// never read pixels already drawn in the destination.
type EffectRenderer struct {
	cfg   EffectRendererConfig
	layer *image.RGBA
	out   *image.RGBA
}

// NewEffectRenderer instances a new [EffectRenderer].
func NewEffectRenderer(cfg EffectRendererConfig) (*EffectRenderer, error) {
	er := &EffectRenderer{}
	err := er.Configure(cfg)
	if err != nil {
		return nil, err
	}
	return er, nil
}

// Configure sets the renderer configuration.
func (er *EffectRenderer) Configure(cfg EffectRendererConfig) error {
	if cfg.EvalBufferSize < 64 {
		return errors.New("too small evaluation buffer size")
	} else if cfg.Concurrency < 0 {
		return errors.New("negative concurrency")
	} else if cfg.Sampling > SamplingNearest {
		return fmt.Errorf("invalid sampling %v", cfg.Sampling)
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
	er.cfg = cfg
	return nil
}

// Render draws content through warp over dst. Content is stretched to cover
// warp.Bounds() and dst covers the same rectangle. Warped positions that fall
// off the content are transparent and leave dst untouched.
// It uses userData as an argument to all [gleval.Warp.Evaluate] calls.
func (er *EffectRenderer) Render(ctx context.Context, dst draw.Image, content image.Image, warp gleval.Warp, userData any) error {
	dstBB := dst.Bounds()
	width, height := dstBB.Dx(), dstBB.Dy()
	if width == 0 || height == 0 {
		return errors.New("empty destination image")
	}
	bb := warp.Bounds()
	sz := bb.Size()
	if !(sz.X > 0) || !(sz.Y > 0) {
		return errors.New("warp bounds must have positive size")
	}
	er.prepareLayer(content, width, height)
	scale := ms2.DivElem(sz, ms2.Vec{X: float32(width), Y: float32(height)})

	rowsPerBatch := max(1, er.cfg.EvalBufferSize/width)
	batch := func(ctx context.Context, pos, samples []ms2.Vec, row0, row1 int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		pos = pos[:0]
		for j := row0; j < row1; j++ {
			y := bb.Min.Y + (float32(j)+0.5)*scale.Y
			for i := 0; i < width; i++ {
				pos = append(pos, ms2.Vec{X: bb.Min.X + (float32(i)+0.5)*scale.X, Y: y})
			}
		}
		samples = samples[:len(pos)]
		err := warp.Evaluate(pos, samples, userData)
		if err != nil {
			return err
		}
		for k, q := range samples {
			// Texel centers of the layer lie on integer coordinates.
			lx := (q.X-bb.Min.X)/scale.X - 0.5
			ly := (q.Y-bb.Min.Y)/scale.Y - 0.5
			er.out.SetRGBA(k%width, row0+k/width, er.cfg.Sampling.sampleAt(er.layer, lx, ly))
		}
		return nil
	}

	bufSize := rowsPerBatch * width
	if er.cfg.Concurrency == 1 {
		pos := make([]ms2.Vec, 0, bufSize)
		samples := make([]ms2.Vec, bufSize)
		for row := 0; row < height; row += rowsPerBatch {
			err := batch(ctx, pos, samples, row, min(height, row+rowsPerBatch))
			if err != nil {
				return err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(er.cfg.Concurrency)
		for row := 0; row < height; row += rowsPerBatch {
			row0, row1 := row, min(height, row+rowsPerBatch)
			g.Go(func() error {
				// Each batch owns its buffers and a disjoint set of output rows.
				pos := make([]ms2.Vec, 0, bufSize)
				samples := make([]ms2.Vec, bufSize)
				return batch(gctx, pos, samples, row0, row1)
			})
		}
		err := g.Wait()
		if err != nil {
			return err
		}
	}
	draw.Draw(dst, dstBB, er.out, image.Point{}, draw.Over)
	return nil
}

// prepareLayer draws content into the compositing layer at the destination
// size and clears the output layer.
func (er *EffectRenderer) prepareLayer(content image.Image, width, height int) {
	rect := image.Rect(0, 0, width, height)
	if er.layer == nil || er.layer.Rect != rect {
		er.layer = image.NewRGBA(rect)
		er.out = image.NewRGBA(rect)
	} else {
		clear(er.layer.Pix)
		clear(er.out.Pix)
	}
	cbb := content.Bounds()
	if cbb.Size() == rect.Size() {
		draw.Draw(er.layer, rect, content, cbb.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(er.layer, rect, content, cbb, draw.Src, nil)
	}
}
