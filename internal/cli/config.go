package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the installation record",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the installation record as JSON",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the installation record exists and parses",
		Args:  cobra.NoArgs,
		RunE:  runConfigValidate,
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the location of the installation record",
		Args:  cobra.NoArgs,
		RunE:  runConfigPath,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), env.store.Read())
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := env.store.Validate(); err != nil {
		return fmt.Errorf("%s: %w", env.store.Path(), err)
	}
	cfg := env.store.Read()
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "%s is valid", env.store.Path())
	fmt.Fprintf(cmd.OutOrStdout(), " (%d platform(s))\n", len(cfg.Platforms))
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), env.store.Path())
	if _, err := os.Stat(env.store.Path()); os.IsNotExist(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), "(not created yet)")
	}
	return nil
}
