package cli

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTestScene(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.toml")
	err := os.WriteFile(path, []byte(testScene), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderCommandFrames(t *testing.T) {
	scenePath := writeTestScene(t)
	output := filepath.Join(filepath.Dir(scenePath), "out.png")
	_, err := runCLI(t, "render", "-s", scenePath, "-o", output, "--frames", "2", "--fps", "10")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"out_0000.png", "out_0001.png"} {
		fp, err := os.Open(filepath.Join(filepath.Dir(scenePath), name))
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(fp)
		fp.Close()
		if err != nil {
			t.Fatal(err)
		}
		if sz := img.Bounds().Size(); sz.X != 16 || sz.Y != 12 {
			t.Errorf("%s: want 16x12, got %v", name, sz)
		}
	}
}

func TestRenderCommandErrors(t *testing.T) {
	scenePath := writeTestScene(t)
	tests := [][]string{
		{"render"},
		{"render", "-s", scenePath, "--frames", "0"},
		{"render", "-s", scenePath, "--fps", "0"},
		{"render", "-s", filepath.Join(t.TempDir(), "missing.toml")},
	}
	for _, args := range tests {
		_, err := runCLI(t, args...)
		if err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestShaderCommand(t *testing.T) {
	for _, lang := range []string{langGLSL, langFrag, langKage, langWGSL} {
		out, err := runCLI(t, "shader", "--lang", lang)
		if err != nil {
			t.Fatalf("%s: %v", lang, err)
		}
		if len(out) == 0 {
			t.Errorf("%s: empty shader", lang)
		}
	}
	out, err := runCLI(t, "shader", "--lang", langWGSL, "--invoc", "64")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "@workgroup_size(64)") {
		t.Error("workgroup size flag not applied")
	}
	output := filepath.Join(t.TempDir(), "warp.kage")
	_, err = runCLI(t, "shader", "--lang", langKage, "-o", output)
	if err != nil {
		t.Fatal(err)
	}
	if b, err := os.ReadFile(output); err != nil || !bytes.Contains(b, []byte("func Fragment")) {
		t.Errorf("kage shader not written to file: %v", err)
	}
	for _, args := range [][]string{
		{"shader", "--lang", "hlsl"},
		{"shader", "--lang", langKage, "--max-segments", "0"},
		{"shader", "--invoc", "0"},
	} {
		if _, err := runCLI(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestInspectCommand(t *testing.T) {
	scenePath := writeTestScene(t)
	out, err := runCLI(t, "inspect", "-s", scenePath, "-p", "3,1")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"variant: segmentation",
		"segments: 2",
		"0: Node(8,4) scale=2",
		"1: Bar(2,8; 14,9) scale=1",
		"args[15]:",
		"sample 3,1 ->",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
	if _, err := runCLI(t, "inspect", "-s", scenePath, "-p", "3"); err == nil {
		t.Error("expected error for malformed probe")
	}
}

func TestFrameFilename(t *testing.T) {
	tests := []struct {
		output        string
		frame, frames int
		want          string
	}{
		{"out.png", 0, 1, "out.png"},
		{"out.png", 3, 10, "out_0003.png"},
		{"dir/anim", 12, 20, "dir/anim_0012"},
	}
	for _, tt := range tests {
		if got := frameFilename(tt.output, tt.frame, tt.frames); got != tt.want {
			t.Errorf("frameFilename(%q, %d, %d) = %q, want %q", tt.output, tt.frame, tt.frames, got, tt.want)
		}
	}
	if got := frameOffset(5, 30, 3, 10); got != 14 {
		t.Errorf("frameOffset = %v, want 14", got)
	}
}
