//go:build cgo && gpu

package gleval_test

import (
	"bytes"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"testing"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/segfx"
	"github.com/soypat/segfx/glbuild"
	"github.com/soypat/segfx/gleval"
)

// Since GPU must be run in main thread we need to do some dark arts for GPU code to be code-covered.
func TestMain(m *testing.M) {
	runtime.LockOSThread()
	var exit int
	err := testWarpGPU()
	if err != nil {
		exit = 1
		log.Println(err)
	}
	runtime.UnlockOSThread()
	os.Exit(m.Run() | exit)
}

func testWarpGPU() error {
	term, err := gleval.Init1x1GLFW()
	if err != nil {
		return err
	}
	defer term()
	programmer := glbuild.NewDefaultProgrammer()
	programmer.SetComputeInvocations(64, 1, 1)
	var source bytes.Buffer
	_, err = programmer.WriteComputeWarp(&source)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(1))
	effects := []segfx.Effect{
		testEffect,
		segfx.GeometryEffect(testEffect.Bounds, nil, 0),
	}
	for i := 0; i < 16; i++ {
		segs := randomSegments(rng, 1+rng.Intn(6))
		effects = append(effects, segfx.GeometryEffect(testEffect.Bounds, segs, 20*rng.Float32()-10))
	}
	var pos []ms2.Vec
	for y := -4; y < 52; y++ {
		pos = gleval.PixelCenters(pos, testEffect.Bounds, y, -4, 68)
	}
	want := make([]ms2.Vec, len(pos))
	got := make([]ms2.Vec, len(pos))
	for i, e := range effects {
		cpu, err := gleval.NewCPUWarp(e)
		if err != nil {
			return err
		}
		gpu, err := gleval.NewComputeWarp(bytes.NewReader(source.Bytes()), e, gleval.ComputeConfig{InvocX: 64})
		if err != nil {
			return err
		}
		err = cpu.Evaluate(pos, want, nil)
		if err == nil {
			err = gpu.Evaluate(pos, got, nil)
		}
		gpu.Delete()
		if err != nil {
			return fmt.Errorf("effect %d: %w", i, err)
		}
		for j := range want {
			d := ms2.Sub(want[j], got[j])
			if ms2.Norm(d) > 1e-2 {
				return fmt.Errorf("effect %d: GPU/CPU mismatch at %v: %v != %v", i, pos[j], got[j], want[j])
			}
		}
	}
	return nil
}

// randomSegments returns nodes, bars and twisted bars (A right of B) over the
// test bounds. Spacing and slopes keep edges from crossing within x in [-4,68].
func randomSegments(rng *rand.Rand, n int) []segfx.GeometrySegment {
	segs := make([]segfx.GeometrySegment, n)
	y := float32(0)
	for i := range segs {
		y += 4 + 4*rng.Float32()
		a := ms2.Vec{X: 64 * rng.Float32(), Y: y}
		var e segfx.Edge
		switch rng.Intn(3) {
		case 0:
			e = segfx.Node(a)
		case 1:
			e = segfx.Bar(a, ms2.Vec{X: a.X + 24 + 24*rng.Float32(), Y: y + rng.Float32() - 0.5})
		default:
			e = segfx.Bar(a, ms2.Vec{X: a.X - 24 - 24*rng.Float32(), Y: y + rng.Float32() - 0.5})
		}
		segs[i] = segfx.GeometrySegment{Edge: e, Scale: segfx.Speed(0.2 + 2*rng.Float32())}
	}
	return segs
}
