package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ffstatic/internal/platform"
	"ffstatic/internal/probe"
	"ffstatic/internal/tui"
	"ffstatic/pkg/ffstatic"
)

var (
	statusPlatform string
	statusSources  string
	statusProbe    bool
)

type kindStatus struct {
	Kind          platform.Kind `json:"kind"`
	Installed     bool          `json:"installed"`
	Path          string        `json:"path,omitempty"`
	Version       string        `json:"version,omitempty"`
	URL           string        `json:"url,omitempty"`
	Available     string        `json:"available,omitempty"`
	Outdated      bool          `json:"outdated"`
	ProbedVersion string        `json:"probedVersion,omitempty"`
	ProbeError    string        `json:"probeError,omitempty"`
}

type statusReport struct {
	Identifier string       `json:"identifier"`
	Root       string       `json:"root"`
	Binaries   []kindStatus `json:"binaries"`
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show installed binaries for this platform",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().StringVar(&statusPlatform, "platform", "", "Platform identifier to inspect instead of the detected one")
	cmd.Flags().StringVar(&statusSources, "sources", "", "Sources file used to judge whether installs are outdated")
	cmd.Flags().BoolVar(&statusProbe, "probe", false, "Run each binary with -version")
	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := loadEnvironment(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	table, err := sourceTable(statusSources)
	if err != nil {
		return err
	}

	bins, err := ffstatic.LoadWith(ctx, ffstatic.Options{
		Registry:   env.registry,
		Resolver:   env.resolver,
		Identifier: statusPlatform,
	})
	if err != nil {
		if errors.Is(err, ffstatic.ErrNotInstalled) || errors.Is(err, ffstatic.ErrPlatformNotInstalled) {
			return fmt.Errorf("%w; run `ffstatic install` first", err)
		}
		return err
	}

	report := statusReport{Identifier: bins.Identifier, Root: env.resolver.Root()}
	available := ""
	if src, ok := table.Lookup(bins.Identifier); ok {
		available = src.Version
	}

	for _, kind := range platform.Kinds() {
		ks := kindStatus{Kind: kind, Available: available}
		if info := bins.Get(kind); info != nil {
			ks.Installed = true
			ks.Path = info.Path
			ks.Version = info.Version
			ks.URL = info.URL
			ks.Outdated = probe.Outdated(info.Version, available)
			if statusProbe {
				if v, err := probe.Version(ctx, info.Path); err != nil {
					ks.ProbeError = err.Error()
				} else {
					ks.ProbedVersion = v
				}
			}
		}
		report.Binaries = append(report.Binaries, ks)
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	printStatus(cmd.OutOrStdout(), report)
	return nil
}

func printStatus(w io.Writer, report statusReport) {
	fmt.Fprintf(w, "Platform: %s\n", report.Identifier)
	fmt.Fprintf(w, "Root:     %s\n\n", report.Root)
	fmt.Fprintf(w, "%-8s %-10s %-10s %-10s %s\n", "KIND", "VERSION", "AVAILABLE", "STATE", "PATH")
	for _, b := range report.Binaries {
		state := color.New(color.FgGreen).Sprintf("%-10s", "ok")
		switch {
		case !b.Installed:
			state = color.New(color.FgRed).Sprintf("%-10s", "missing")
		case b.Outdated:
			state = color.New(color.FgYellow).Sprintf("%-10s", "outdated")
		}
		fmt.Fprintf(w, "%-8s %-10s %-10s %s %s\n", b.Kind, tui.NonEmptyOrDash(b.Version), tui.NonEmptyOrDash(b.Available), state, tui.NonEmptyOrDash(b.Path))
		if b.ProbedVersion != "" {
			fmt.Fprintf(w, "  reports version %s\n", b.ProbedVersion)
		}
		if b.ProbeError != "" {
			fmt.Fprintf(w, "  probe failed: %s\n", b.ProbeError)
		}
	}
}
