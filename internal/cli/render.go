package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soypat/segfx"
	"github.com/soypat/segfx/glbuild"
	"github.com/soypat/segfx/gleval"
	"github.com/soypat/segfx/glrender"
	"github.com/soypat/segfx/segfxaux"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	scene  string  // scene file path
	output string  // output PNG path, numbered when rendering several frames
	gpu    bool    // evaluate the warp with an OpenGL compute shader
	frames int     // number of frames to render
	fps    float32 // frames per second of the animation
}

// effectWarp is a warp whose effect can be replaced between frames.
type effectWarp interface {
	gleval.Warp
	SetEffect(segfx.Effect) error
}

func newRenderCmd() *cobra.Command {
	opts := renderOpts{output: "out.png", frames: 1, fps: 30}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene to PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.scene, "scene", "s", "", "scene TOML file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output PNG file")
	cmd.Flags().BoolVar(&opts.gpu, "gpu", false, "evaluate the warp on the GPU")
	cmd.Flags().IntVar(&opts.frames, "frames", opts.frames, "number of animation frames")
	cmd.Flags().Float32Var(&opts.fps, "fps", opts.fps, "animation frames per second")
	cmd.MarkFlagRequired("scene")
	return cmd
}

func runRender(ctx context.Context, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	if opts.frames < 1 {
		return errors.New("frames must be at least 1")
	} else if !(opts.fps > 0) {
		return errors.New("fps must be positive")
	}
	sc, err := loadScene(opts.scene)
	if err != nil {
		return err
	}
	prog := newProgress(logger)
	content, err := sc.content()
	if err != nil {
		return err
	}
	width, height := sc.size(content)
	e, err := sc.effect(width, height, sc.Offset)
	if err != nil {
		return err
	}
	prog.done("loaded scene", "segments", e.NumSegments(), "width", width, "height", height)

	warp, concurrency, cleanup, err := newWarp(e, opts.gpu)
	if err != nil {
		return err
	}
	defer cleanup()
	renderer, err := glrender.NewEffectRenderer(glrender.EffectRendererConfig{
		Sampling:       sc.sampling(),
		EvalBufferSize: max(4096, width),
		Concurrency:    concurrency,
	})
	if err != nil {
		return err
	}

	for frame := 0; frame < opts.frames; frame++ {
		offset := frameOffset(sc.Offset, sc.Speed, frame, opts.fps)
		e.VerticalOffset = offset
		err = warp.SetEffect(e)
		if err != nil {
			return err
		}
		prog = newProgress(logger)
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		err = renderer.Render(ctx, img, content, warp, nil)
		if err != nil {
			return err
		}
		filename := frameFilename(opts.output, frame, opts.frames)
		err = segfxaux.WritePNGFile(filename, img)
		if err != nil {
			return err
		}
		prog.done("rendered frame", "file", filename, "offset", offset)
	}
	return nil
}

// newWarp creates the warp evaluating e and the render concurrency it supports.
func newWarp(e segfx.Effect, useGPU bool) (warp effectWarp, concurrency int, cleanup func(), err error) {
	if !useGPU {
		cpu, err := gleval.NewCPUWarp(e)
		return cpu, 0, func() {}, err
	}
	terminate, err := gleval.Init1x1GLFW()
	if err != nil {
		return nil, 0, nil, err
	}
	programmer := glbuild.NewDefaultProgrammer()
	invocX, _, _ := programmer.ComputeInvocations()
	var source bytes.Buffer
	_, err = programmer.WriteComputeWarp(&source)
	if err != nil {
		terminate()
		return nil, 0, nil, err
	}
	gpu, err := gleval.NewComputeWarp(&source, e, gleval.ComputeConfig{InvocX: invocX})
	if err != nil {
		terminate()
		return nil, 0, nil, err
	}
	return gpu, 1, func() { gpu.Delete(); terminate() }, nil
}

// frameOffset returns the vertical offset of a frame animated at speed pixels per second.
func frameOffset(base, speed float32, frame int, fps float32) float32 {
	return base + speed*float32(frame)/fps
}

// frameFilename numbers output when rendering more than one frame: out.png becomes out_0003.png.
func frameFilename(output string, frame, frames int) string {
	if frames == 1 {
		return output
	}
	ext := filepath.Ext(output)
	return fmt.Sprintf("%s_%04d%s", strings.TrimSuffix(output, ext), frame, ext)
}
