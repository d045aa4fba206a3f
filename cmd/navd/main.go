package main

import (
	"context"
	"os"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/oriumgames/navgraph/lib/textui"
)

func main() {
	verbosity := textui.LogLevelFlag{Level: dlog.LogLevelInfo}
	var sceneDir string

	root := &cobra.Command{
		Use:   "navd {[flags]|SUBCOMMAND}",
		Short: "Bake, serve, and inspect hex-lattice navigation data",

		SilenceErrors: true, // main() handles the error after ExecuteContext returns
		SilenceUsage:  true,

		CompletionOptions: cobra.CompletionOptions{ //nolint:exhaustivestruct
			DisableDefaultCmd: true,
		},
	}
	root.PersistentFlags().Var(&verbosity, "verbosity", "set the log verbosity (error|warn|info|debug|trace)")
	root.PersistentFlags().StringVar(&sceneDir, "scene-dir", ".", "root directory serve resolves resource keys against")

	root.AddCommand(wrapCommand(&verbosity, newBakeCmd()))
	root.AddCommand(wrapCommand(&verbosity, newServeCmd(&sceneDir)))
	root.AddCommand(wrapCommand(&verbosity, newInspectCmd()))
	root.AddCommand(wrapCommand(&verbosity, newLsblobCmd()))

	if err := root.ExecuteContext(context.Background()); err != nil {
		textui.Fprintf(os.Stderr, "%v: error: %v\n", root.CommandPath(), err)
		os.Exit(1)
	}
}

// wrapCommand gives cmd a logger-carrying context and runs its RunE
// under a supervised goroutine group, matching the teacher's
// cmd/btrfs-rec subcommand-wrapping pattern.
func wrapCommand(verbosity *textui.LogLevelFlag, cmd *cobra.Command) *cobra.Command {
	inner := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		logger := textui.NewLogger(os.Stderr, verbosity.Level)
		ctx := dlog.WithLogger(cmd.Context(), logger)

		grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
			EnableSignalHandling: true,
		})
		grp.Go("main", func(ctx context.Context) error {
			cmd.SetContext(ctx)
			return inner(cmd, args)
		})
		return grp.Wait()
	}
	return cmd
}
