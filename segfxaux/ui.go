//go:build !tinygo && cgo

package segfxaux

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"log"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/segfx"
	"github.com/soypat/segfx/glbuild"
)

const quadVertexShader = `#version 460
in vec2 aPos;
out vec2 vTexCoord;
void main() {
    vTexCoord = aPos * 0.5 + 0.5;
    gl_Position = vec4(aPos, 0.0, 1.0);
}
` + "\x00"

func ui(content image.Image, e segfx.Effect, cfg UIConfig) error {
	window, term, err := startGLFW(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer term()

	var fragSrc bytes.Buffer
	programmer := glbuild.NewDefaultProgrammer()
	_, err = programmer.WriteFragmentWarp(&fragSrc)
	if err != nil {
		return err
	}
	fragSrc.WriteByte(0)
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   quadVertexShader,
		Fragment: fragSrc.String(),
	})
	if err != nil {
		return fmt.Errorf("%s\n\n%w", fragSrc.String(), err)
	}
	defer prog.Delete()
	prog.Bind()

	// Define a quad covering the screen.
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	vertices := []float32{
		-1.0, -1.0,
		1.0, -1.0,
		-1.0, 1.0,
		-1.0, 1.0,
		1.0, -1.0,
		1.0, 1.0,
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)
	posAttrib, err := prog.AttribLocation("aPos\x00")
	if err != nil {
		return err
	}
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))

	tex := uploadTexture(content)
	defer gl.DeleteTextures(1, &tex)
	ssbo := uploadSegments(e.Segments)
	defer gl.DeleteBuffers(1, &ssbo)

	var locs [4]int32
	for i, name := range []string{glbuild.UniformBounds, glbuild.UniformOffset, glbuild.UniformNumSegments, glbuild.UniformContent} {
		locs[i], err = prog.UniformLocation(name + "\x00")
		if err != nil {
			return err
		}
	}
	locBounds, locOffset, locNumSegs, locContent := locs[0], locs[1], locs[2], locs[3]
	sz := e.Bounds.Size()
	gl.Uniform4f(locBounds, e.Bounds.Min.X, e.Bounds.Min.Y, sz.X, sz.Y)
	gl.Uniform1i(locNumSegs, int32(e.NumSegments()))
	gl.Uniform1i(locContent, 0)

	var (
		scrub  OffsetScrubber
		mouseY float32
		base   = e.VerticalOffset
		offset = base
		start  = glfw.GetTime()
	)
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		mouseY = float32(ypos)
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		if action == glfw.Press {
			_, ypos := w.GetCursorPos()
			mouseY = float32(ypos)
			scrub.Start(mouseY, offset)
		} else if action == glfw.Release && scrub.Active() {
			scrub.End()
			base, start = offset, glfw.GetTime()
		}
	})

	ctx := cfg.Context
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if scrub.Active() {
			offset = scrub.Drag(mouseY)
		} else {
			offset = base + cfg.OffsetSpeed*float32(glfw.GetTime()-start)
		}
		gl.ClearColor(0, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		prog.Bind()
		gl.Uniform1f(locOffset, offset)
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, glbuild.BindingSegments, ssbo)
		gl.BindVertexArray(vao)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
		window.SwapBuffers()

		time.Sleep(time.Second / 60)
		glfw.PollEvents()
	}
	return glgl.Err()
}

func uploadTexture(content image.Image) (tex uint32) {
	bb := content.Bounds()
	rgba, ok := content.(*image.RGBA)
	if !ok || rgba.Stride != 4*bb.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
		draw.Draw(rgba, rgba.Rect, content, bb.Min, draw.Src)
	}
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(bb.Dx()), int32(bb.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	return tex
}

func uploadSegments(flat []float32) (ssbo uint32) {
	if len(flat) == 0 {
		flat = make([]float32, segfx.FlatStride)
	}
	gl.GenBuffers(1, &ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, 4*len(flat), gl.Ptr(flat), gl.STATIC_DRAW)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, glbuild.BindingSegments, ssbo)
	return ssbo
}

func startGLFW(width, height int) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err = glfw.CreateWindow(width, height, "segfx preview", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	log.Println("OpenGL version", gl.GoStr(gl.GetString(gl.VERSION)))
	return window, glfw.Terminate, nil
}
