package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/soypat/segfx/glbuild"
)

const (
	langGLSL = "glsl" // GLSL compute shader in glgl combined format
	langFrag = "frag" // GLSL fragment shader
	langKage = "kage" // ebiten Kage shader
	langWGSL = "wgsl" // WGSL compute shader
)

type shaderOpts struct {
	lang        string
	maxSegments int
	invocX      int
	output      string
}

func newShaderCmd() *cobra.Command {
	opts := shaderOpts{lang: langGLSL, maxSegments: 32, invocX: 32}
	cmd := &cobra.Command{
		Use:   "shader",
		Short: "Print the warp kernel shader source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			w := cmd.OutOrStdout()
			if opts.output != "" {
				fp, err := os.Create(opts.output)
				if err != nil {
					return err
				}
				defer func() {
					if cerr := fp.Close(); err == nil {
						err = cerr
					}
				}()
				w = fp
			}
			n, err := writeShader(w, opts)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("wrote shader", "lang", opts.lang, "bytes", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.lang, "lang", opts.lang, "shader language: glsl, frag, kage or wgsl")
	cmd.Flags().IntVar(&opts.maxSegments, "max-segments", opts.maxSegments, "segment capacity of kage shaders")
	cmd.Flags().IntVar(&opts.invocX, "invoc", opts.invocX, "compute workgroup size")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, standard output if empty")
	return cmd
}

func writeShader(w io.Writer, opts shaderOpts) (int, error) {
	if opts.invocX < 1 {
		return 0, fmt.Errorf("invalid workgroup size %d", opts.invocX)
	}
	programmer := glbuild.NewDefaultProgrammer()
	programmer.SetComputeInvocations(opts.invocX, 1, 1)
	switch opts.lang {
	case langGLSL:
		return programmer.WriteComputeWarp(w)
	case langFrag:
		return programmer.WriteFragmentWarp(w)
	case langKage:
		return programmer.WriteKageWarp(w, opts.maxSegments)
	case langWGSL:
		return programmer.WriteWGSLComputeWarp(w)
	}
	return 0, fmt.Errorf("unknown shader language %q", opts.lang)
}
