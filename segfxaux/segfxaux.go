package segfxaux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/soypat/segfx"
	"github.com/soypat/segfx/glbuild"
	"github.com/soypat/segfx/gleval"
	"github.com/soypat/segfx/glrender"
)

type RenderConfig struct {
	// Width and Height of the output image in pixels. If zero the content size is used.
	Width, Height int
	Sampling      glrender.Sampling
	UseGPU        bool
	Silent        bool
	// Context cancels rendering between row batches. May be nil.
	Context context.Context
}

// Render is an auxiliary function to aid users in getting setup in using segfx quickly.
// It draws content through the effect into a new image.
// Ideally users should implement their own rendering functions since applications may vary widely.
func Render(content image.Image, e segfx.Effect, cfg RenderConfig) (_ *image.RGBA, err error) {
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	width, height := cfg.Width, cfg.Height
	if width == 0 || height == 0 {
		sz := content.Bounds().Size()
		width, height = sz.X, sz.Y
	}
	if width <= 0 || height <= 0 {
		return nil, errors.New("Render requires non-empty output size")
	}

	watch := stopwatch()
	var warp gleval.Warp
	concurrency := 0
	if cfg.UseGPU {
		log("using GPU\tᵍᵒᵗᵗᵃ ᵍᵒ ᶠᵃˢᵗ")
		terminate, err := gleval.Init1x1GLFW()
		if err != nil {
			return nil, err
		}
		defer terminate()
		programmer := glbuild.NewDefaultProgrammer()
		invocX, _, _ := programmer.ComputeInvocations()
		var source bytes.Buffer
		n, err := programmer.WriteComputeWarp(&source)
		if err != nil {
			return nil, err
		} else if n != source.Len() {
			return nil, fmt.Errorf("wrote %d bytes but WriteComputeWarp counted %d", source.Len(), n)
		}
		gpu, err := gleval.NewComputeWarp(&source, e, gleval.ComputeConfig{InvocX: invocX})
		if err != nil {
			return nil, err
		}
		defer gpu.Delete()
		warp = gpu
		concurrency = 1 // GL calls must stay on this thread.
	} else {
		log("using CPU")
		warp, err = gleval.NewCPUWarp(e)
		if err != nil {
			return nil, err
		}
	}
	log("instantiating warp took", watch())

	renderer, err := glrender.NewEffectRenderer(glrender.EffectRendererConfig{
		Sampling:       cfg.Sampling,
		EvalBufferSize: max(4096, width),
		Concurrency:    concurrency,
	})
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	watch = stopwatch()
	err = renderer.Render(ctx, img, content, warp, nil)
	if err != nil {
		return nil, err
	}
	log("rendered", width, "x", height, "pixels through", e.NumSegments(), "segments in", watch())
	return img, nil
}

// RenderPNGFile renders content through the effect and saves result to a PNG file with said filename.
func RenderPNGFile(filename string, content image.Image, e segfx.Effect, cfg RenderConfig) error {
	img, err := Render(content, e, cfg)
	if err != nil {
		return err
	}
	return WritePNGFile(filename, img)
}

// WritePNGFile encodes img as PNG into a newly created file.
func WritePNGFile(filename string, img image.Image) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = png.Encode(fp, img)
	if err != nil {
		return err
	}
	return fp.Sync()
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// UIConfig configures the live preview window opened by [UI].
type UIConfig struct {
	// Width and Height of the window in pixels.
	Width, Height int
	// OffsetSpeed animates the vertical offset in pixels per second. Zero leaves the offset still.
	OffsetSpeed float32
	// Context closes the window when done. May be nil.
	Context context.Context
}

// OffsetScrubber maps a vertical mouse drag to a vertical offset. The offset
// follows the pointer at a tenth of its travel, measured from where the drag
// started. While a drag is active its offset replaces any animated offset.
type OffsetScrubber struct {
	startY      float32
	startOffset float32
	active      bool
}

// Start begins a drag at pointer height y with the offset currently shown.
func (s *OffsetScrubber) Start(y, offset float32) {
	s.startY, s.startOffset, s.active = y, offset, true
}

// Drag returns the offset for pointer height y. Dragging down increases the offset.
func (s *OffsetScrubber) Drag(y float32) float32 {
	return s.startOffset + (y-s.startY)/scrubRatio
}

// End finishes the drag.
func (s *OffsetScrubber) End() { s.active = false }

// Active reports whether a drag is in progress.
func (s *OffsetScrubber) Active() bool { return s.active }

const scrubRatio = 10

// UI opens a window previewing content drawn through the effect on the GPU.
// Dragging the mouse vertically scrubs the vertical offset and the animation
// resumes from the dragged offset on release.
// It must be called from the main thread with the OS thread locked.
func UI(content image.Image, e segfx.Effect, cfg UIConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.New("UI requires positive window size")
	}
	err := e.Validate()
	if err != nil {
		return err
	}
	return ui(content, e, cfg)
}
