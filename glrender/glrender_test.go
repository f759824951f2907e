package glrender_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/segfx"
	"github.com/soypat/segfx/gleval"
	"github.com/soypat/segfx/glrender"
)

func randomContent(rng *rand.Rand, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

func mustWarp(t *testing.T, e segfx.Effect) *gleval.CPUWarp {
	t.Helper()
	warp, err := gleval.NewCPUWarp(e)
	if err != nil {
		t.Fatal(err)
	}
	return warp
}

func TestRenderIdentity(t *testing.T) {
	const w, h = 32, 24
	content := randomContent(rand.New(rand.NewSource(1)), w, h)
	warp := mustWarp(t, segfx.SegmentationEffect(ms2.NewBox(0, 0, w, h), nil, 7))
	for _, sampling := range []glrender.Sampling{glrender.SamplingBilinear, glrender.SamplingNearest} {
		renderer, err := glrender.NewEffectRenderer(glrender.EffectRendererConfig{Sampling: sampling, EvalBufferSize: 100})
		if err != nil {
			t.Fatal(err)
		}
		dst := image.NewRGBA(content.Rect)
		err = renderer.Render(context.Background(), dst, content, warp, nil)
		if err != nil {
			t.Fatal(err)
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if got, want := dst.RGBAAt(x, y), content.RGBAAt(x, y); got != want {
					t.Fatalf("%v: pixel (%d,%d) want %v, got %v", sampling, x, y, want, got)
				}
			}
		}
	}
}

func TestRenderNearestFollowsKernel(t *testing.T) {
	const w, h = 40, 60
	content := randomContent(rand.New(rand.NewSource(2)), w, h)
	e := segfx.GeometryEffect(ms2.NewBox(0, 0, w, h), []segfx.GeometrySegment{
		{Edge: segfx.Node(ms2.Vec{X: 20, Y: 15}), Scale: 2},
		{Edge: segfx.Bar(ms2.Vec{X: 35, Y: 40}, ms2.Vec{X: 5, Y: 42}), Scale: 0.5},
	}, 4)
	renderer, err := glrender.NewEffectRenderer(glrender.EffectRendererConfig{Sampling: glrender.SamplingNearest, EvalBufferSize: 64, Concurrency: 1})
	if err != nil {
		t.Fatal(err)
	}
	dst := image.NewRGBA(content.Rect)
	err = renderer.Render(context.Background(), dst, content, mustWarp(t, e), nil)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			q := e.Sample(ms2.Vec{X: float32(x) + 0.5, Y: float32(y) + 0.5})
			// Texel centers lie on integer coordinates, rounding picks the nearest one.
			lx, ly := q.X-0.5, q.Y-0.5
			qx, qy := int(math32.Floor(lx+0.5)), int(math32.Floor(ly+0.5))
			var want color.RGBA
			if image.Pt(qx, qy).In(content.Rect) {
				want = content.RGBAAt(qx, qy)
			}
			if got := dst.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) sampled at %v: want %v, got %v", x, y, q, want, got)
			}
		}
	}
}

func TestRenderConcurrentMatchesSerial(t *testing.T) {
	const w, h = 50, 70
	content := randomContent(rand.New(rand.NewSource(3)), w, h)
	e := segfx.SegmentationEffect(ms2.NewBox(0, 0, w, h), []segfx.SegmentationSegment{
		{Edge: segfx.Bar(ms2.Vec{X: 5, Y: 20}, ms2.Vec{X: 45, Y: 30}), Scale: 1.5},
		{Edge: segfx.Node(ms2.Vec{X: 10, Y: 50}), Scale: 0.3},
	}, -3)
	warp := mustWarp(t, e)
	var images [2]*image.RGBA
	for i, concurrency := range []int{1, 4} {
		renderer, err := glrender.NewEffectRenderer(glrender.EffectRendererConfig{EvalBufferSize: 128, Concurrency: concurrency})
		if err != nil {
			t.Fatal(err)
		}
		images[i] = image.NewRGBA(content.Rect)
		err = renderer.Render(context.Background(), images[i], content, warp, nil)
		if err != nil {
			t.Fatal(err)
		}
	}
	for i := range images[0].Pix {
		if images[0].Pix[i] != images[1].Pix[i] {
			t.Fatalf("concurrent render differs from serial at byte %d", i)
		}
	}
}

func TestRenderScalesContent(t *testing.T) {
	content := image.NewUniform(color.RGBA{R: 10, G: 20, B: 30, A: 255})
	small := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			small.Set(x, y, content.C)
		}
	}
	warp := mustWarp(t, segfx.GeometryEffect(ms2.NewBox(0, 0, 4, 4), nil, 0))
	renderer, err := glrender.NewEffectRenderer(glrender.EffectRendererConfig{Sampling: glrender.SamplingNearest, EvalBufferSize: 64})
	if err != nil {
		t.Fatal(err)
	}
	dst := image.NewRGBA(image.Rect(10, 10, 26, 22))
	err = renderer.Render(context.Background(), dst, small, warp, nil)
	if err != nil {
		t.Fatal(err)
	}
	for y := 10; y < 22; y++ {
		for x := 10; x < 26; x++ {
			if got := dst.RGBAAt(x, y); got != content.C {
				t.Fatalf("pixel (%d,%d): want %v, got %v", x, y, content.C, got)
			}
		}
	}
}

func TestRenderCanceled(t *testing.T) {
	content := randomContent(rand.New(rand.NewSource(4)), 16, 16)
	warp := mustWarp(t, segfx.GeometryEffect(ms2.NewBox(0, 0, 16, 16), nil, 0))
	renderer, err := glrender.NewEffectRenderer(glrender.EffectRendererConfig{EvalBufferSize: 64})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = renderer.Render(ctx, image.NewRGBA(content.Rect), content, warp, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestEffectRendererConfigure(t *testing.T) {
	var tests = []struct {
		cfg     glrender.EffectRendererConfig
		wantErr bool
	}{
		{cfg: glrender.EffectRendererConfig{EvalBufferSize: 64}},
		{cfg: glrender.EffectRendererConfig{EvalBufferSize: 10}, wantErr: true},
		{cfg: glrender.EffectRendererConfig{EvalBufferSize: 64, Concurrency: -1}, wantErr: true},
		{cfg: glrender.EffectRendererConfig{EvalBufferSize: 64, Sampling: 9}, wantErr: true},
	}
	for i, test := range tests {
		_, err := glrender.NewEffectRenderer(test.cfg)
		if (err != nil) != test.wantErr {
			t.Errorf("case %d: want error %v, got %v", i, test.wantErr, err)
		}
	}
}

func TestParseSampling(t *testing.T) {
	for _, s := range []glrender.Sampling{glrender.SamplingBilinear, glrender.SamplingNearest} {
		got, err := glrender.ParseSampling(s.String())
		if err != nil || got != s {
			t.Errorf("round trip of %v: got %v, %v", s, got, err)
		}
	}
	if _, err := glrender.ParseSampling("cubic"); err == nil {
		t.Error("expected error for unknown sampling")
	}
}
