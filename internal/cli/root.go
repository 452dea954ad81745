package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pbauriegel/dotforge/pkg/buildinfo"
)

// Execute runs the dotforge CLI and returns an error if any command fails.
//
// The root command wires up the render, inspect, doctor and vendor
// subcommands, configures logging based on the --verbose flag, and attaches
// the logger to the command context.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "dotforge",
		Short:        "dotforge builds DOT graph descriptions and renders them",
		Long:         `dotforge turns graph description payloads into Graphviz DOT source and, when a renderer is available, into images. Rendering degrades gracefully: the DOT sidecar is always written even when no renderer can be found.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVendorCmd())

	return root.ExecuteContext(ctx)
}
