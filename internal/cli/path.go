package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ffstatic/internal/platform"
	"ffstatic/pkg/ffstatic"
)

var pathPlatform string

func newPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "path <ffmpeg|ffprobe>",
		Short:     "Print the installed path of a binary",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"ffmpeg", "ffprobe"},
		RunE:      runPath,
	}
	cmd.Flags().StringVar(&pathPlatform, "platform", "", "Platform identifier to look up instead of the detected one")
	return cmd
}

func runPath(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	kind, ok := platform.ParseKind(args[0])
	if !ok {
		return fmt.Errorf("unknown binary %q (want ffmpeg or ffprobe)", args[0])
	}

	env, err := loadEnvironment(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	bins, err := ffstatic.LoadWith(ctx, ffstatic.Options{
		Registry:   env.registry,
		Resolver:   env.resolver,
		Identifier: pathPlatform,
	})
	if err != nil {
		return err
	}
	path := bins.Path(kind)
	if path == "" {
		return fmt.Errorf("%s is not installed for %s", kind, bins.Identifier)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
