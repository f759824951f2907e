//go:build !tinygo && cgo

package gleval

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/segfx"
	"github.com/soypat/segfx/glbuild"
)

// computeWarp runs the bound warp program over pos and stores the samples in dst.
func computeWarp(pos, dst []ms2.Vec, segments []float32, invocX int) (err error) {
	if len(pos) != len(dst) {
		return errMismatchBufferLength
	} else if len(dst) == 0 {
		return errEmptyBuffers
	} else if invocX < 1 {
		return errZeroInvoc
	}
	if len(segments) == 0 {
		// Binding a zero sized buffer is an error. Kernel reads no segments when uNumSegments is 0.
		segments = make([]float32, segfx.FlatStride)
	}
	var p runtime.Pinner
	var segSSBO, posSSBO, dstSSBO uint32
	p.Pin(&segSSBO)
	p.Pin(&posSSBO)
	p.Pin(&dstSSBO)
	defer p.Unpin()

	segSSBO = loadSSBO(segments, glbuild.BindingSegments, gl.STATIC_DRAW)
	if segSSBO == 0 {
		return glErrOrMessage("loading segments SSBO got zero id")
	}
	defer gl.DeleteBuffers(1, &segSSBO)

	posSSBO = loadSSBO(pos, glbuild.BindingPositions, gl.STATIC_DRAW)
	if posSSBO == 0 {
		return glErrOrMessage("zero SSBO id set by GL during compute loading")
	}
	defer gl.DeleteBuffers(1, &posSSBO)

	dstSSBO = createSSBO(elemSize[ms2.Vec]()*len(dst), glbuild.BindingSamples, gl.DYNAMIC_READ)
	if dstSSBO == 0 {
		return glErrOrMessage("zero id SSBO creating sample buffer")
	}
	defer gl.DeleteBuffers(1, &dstSSBO)

	nWorkX := (len(dst) + invocX - 1) / invocX
	gl.DispatchCompute(uint32(nWorkX), 1, 1)
	err = glgl.Err()
	if err != nil {
		return fmt.Errorf("dispatching warp compute: %w", err)
	}
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
	err = copySSBO(dst, dstSSBO)
	if err != nil {
		return err
	}
	return glgl.Err()
}

func loadSSBO[T any](slice []T, base, usage uint32) (ssbo uint32) {
	var p runtime.Pinner
	p.Pin(&ssbo)
	gl.GenBuffers(1, &ssbo)
	p.Unpin()
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	size := len(slice) * elemSize[T]()
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, unsafe.Pointer(&slice[0]), usage)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, base, ssbo)
	return ssbo
}

func createSSBO(size int, base, usage uint32) (ssbo uint32) {
	gl.GenBuffers(1, &ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, usage)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, base, ssbo)
	return ssbo
}

func copySSBO[T any](dst []T, ssbo uint32) error {
	bufSize := elemSize[T]() * len(dst)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	ptr := gl.MapBufferRange(gl.SHADER_STORAGE_BUFFER, 0, bufSize, gl.MAP_READ_BIT)
	if ptr == nil {
		return glErrOrMessage("failed to map SSBO buffer during copy")
	}
	defer gl.UnmapBuffer(gl.SHADER_STORAGE_BUFFER)
	gpuBytes := unsafe.Slice((*byte)(ptr), bufSize)
	bufBytes := unsafe.Slice((*byte)(unsafe.Pointer(&dst[0])), bufSize)
	copy(bufBytes, gpuBytes)
	return nil
}

func glErrOrMessage(defaultMsg string) (err error) {
	err = glgl.Err()
	if err == nil {
		err = errors.New(defaultMsg)
	} else {
		err = fmt.Errorf("%s: %w", defaultMsg, err)
	}
	return err
}
