package cli

import (
	"github.com/spf13/cobra"

	"github.com/soypat/segfx/segfxaux"
)

func newPreviewCmd() *cobra.Command {
	var scenePath string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview a scene in a window animated at the scene speed",
		Long:  `Preview opens an OpenGL window drawing the scene through a fragment shader. Drag vertically to scrub the offset.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sc, err := loadScene(scenePath)
			if err != nil {
				return err
			}
			content, err := sc.content()
			if err != nil {
				return err
			}
			width, height := sc.size(content)
			e, err := sc.effect(width, height, sc.Offset)
			if err != nil {
				return err
			}
			loggerFromContext(ctx).Debug("opening preview", "segments", e.NumSegments())
			return segfxaux.UI(content, e, segfxaux.UIConfig{
				Width:       width,
				Height:      height,
				OffsetSpeed: sc.Speed,
				Context:     ctx,
			})
		},
	}
	cmd.Flags().StringVarP(&scenePath, "scene", "s", "", "scene TOML file")
	cmd.MarkFlagRequired("scene")
	return cmd
}
