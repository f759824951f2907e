// Package cli implements the segfx command-line interface.
//
// Commands read scene files describing content, segments and a vertical
// offset, and either render them to PNG, preview them in a window, print
// the generated shaders or inspect the kernel arguments.
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var version = "devel"

// SetVersion sets the version displayed by --version.
func SetVersion(v string) { version = v }

// Execute runs the segfx CLI with the process arguments.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "segfx",
		Short:         "segfx distorts images through piecewise-linear segments",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level))
			cmd.SetContext(ctx)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.AddCommand(newRenderCmd())
	root.AddCommand(newPreviewCmd())
	root.AddCommand(newShaderCmd())
	root.AddCommand(newInspectCmd())
	return root
}
