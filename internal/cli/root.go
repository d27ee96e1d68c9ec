package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	outputJSON  bool
	verbose     bool
	storageMode string
	storageHome string
)

// Execute runs the root cobra command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "error: ")
		color.New(color.FgRed).Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ffstatic",
		Short:         "Install static ffmpeg and ffprobe builds for this machine",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}

	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logging to stderr")
	cmd.PersistentFlags().StringVar(&storageMode, "mode", "appdata", "Storage location: appdata or package")
	cmd.PersistentFlags().StringVar(&storageHome, "home", "", "Explicit storage root (overrides --mode and $FFSTATIC_HOME)")

	// Running the bare command installs, so the install flags live on the
	// root as well.
	bindInstallFlags(cmd)
	cmd.RunE = runInstall

	cmd.AddCommand(newInstallCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newPlatformsCmd())
	cmd.AddCommand(newPathCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}
