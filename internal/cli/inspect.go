package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/segfx"
)

func newInspectCmd() *cobra.Command {
	var (
		scenePath string
		probes    []string
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a scene's segments and kernel argument buffer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScene(scenePath)
			if err != nil {
				return err
			}
			width, height := sc.size(nil)
			if sc.Image != "" {
				content, err := sc.content()
				if err != nil {
					return err
				}
				width, height = sc.size(content)
			}
			e, err := sc.effect(width, height, sc.Offset)
			if err != nil {
				return err
			}
			points := make([]ms2.Vec, len(probes))
			for i, probe := range probes {
				points[i], err = parseVec(probe)
				if err != nil {
					return err
				}
			}
			return writeInspect(cmd.OutOrStdout(), sc.Variant, e, points)
		},
	}
	cmd.Flags().StringVarP(&scenePath, "scene", "s", "", "scene TOML file")
	cmd.Flags().StringArrayVarP(&probes, "probe", "p", nil, "print where the kernel samples pixel x,y")
	cmd.MarkFlagRequired("scene")
	return cmd
}

func writeInspect(w io.Writer, variant string, e segfx.Effect, probes []ms2.Vec) error {
	segs, err := segfx.ParseFlat[float32](nil, e.Segments)
	if err != nil {
		return err
	}
	sz := e.Bounds.Size()
	fmt.Fprintf(w, "variant: %s\nbounds: %g,%g %gx%g\noffset: %g\nsegments: %d\n",
		variant, e.Bounds.Min.X, e.Bounds.Min.Y, sz.X, sz.Y, e.VerticalOffset, len(segs))
	for i, seg := range segs {
		fmt.Fprintf(w, "  %d: %v scale=%g\n", i, seg.Edge, seg.Scale)
	}
	args := e.AppendArgs(nil)
	fmt.Fprintf(w, "args[%d]: %v\n", len(args), args)
	for _, p := range probes {
		q := e.Sample(p)
		fmt.Fprintf(w, "sample %g,%g -> %g,%g\n", p.X, p.Y, q.X, q.Y)
	}
	return nil
}

func parseVec(s string) (ms2.Vec, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return ms2.Vec{}, fmt.Errorf("probe %q not in x,y form", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 32)
	if err != nil {
		return ms2.Vec{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 32)
	if err != nil {
		return ms2.Vec{}, err
	}
	return ms2.Vec{X: float32(x), Y: float32(y)}, nil
}
