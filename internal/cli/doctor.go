package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"ffstatic/internal/platform"
	"ffstatic/internal/probe"
	"ffstatic/internal/sources"
	"ffstatic/pkg/ffstatic"
)

var (
	doctorPlatform string
	doctorSources  string
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check platform support and installation health",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
	cmd.Flags().StringVar(&doctorPlatform, "platform", "", "Platform identifier to check instead of the detected one")
	cmd.Flags().StringVar(&doctorSources, "sources", "", "Sources file to overlay on the built-in table")
	return cmd
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := loadEnvironment(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	table, err := sourceTable(doctorSources)
	if err != nil {
		return err
	}

	var checks []healthCheck

	info, platformCheck := checkPlatform(ctx, env.registry)
	checks = append(checks, platformCheck)
	if platformCheck.Status == "error" {
		return writeDoctorResult(cmd, env.resolver.Root(), checks)
	}

	checks = append(checks, checkSource(table, info))

	configCheck := checkConfig(env)
	checks = append(checks, configCheck)
	if configCheck.Status == "ok" {
		checks = append(checks, checkBinaries(ctx, env, info))
	}

	checks = append(checks, checkWorkspace(env))

	return writeDoctorResult(cmd, env.resolver.Root(), checks)
}

func checkPlatform(ctx context.Context, registry *platform.Registry) (platform.Info, healthCheck) {
	if doctorPlatform != "" {
		info, ok := registry.LookupIdentifier(doctorPlatform)
		if !ok {
			return platform.Info{}, healthCheck{Name: "Platform", Status: "error", Summary: "unsupported: " + doctorPlatform}
		}
		return info, healthCheck{Name: "Platform", Status: "ok", Summary: info.Identifier}
	}

	host, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return platform.Info{}, healthCheck{Name: "Platform", Status: "error", Summary: err.Error()}
	}
	info, ok := registry.Lookup(host.Platform, host.Arch)
	if !ok {
		return platform.Info{}, healthCheck{
			Name:    "Platform",
			Status:  "error",
			Summary: fmt.Sprintf("unsupported: %s (%s); %s", host.Identifier(), host.ArchRaw, manualInstallHint),
		}
	}
	return info, healthCheck{Name: "Platform", Status: "ok", Summary: fmt.Sprintf("%s (kernel arch %s)", info.Identifier, host.ArchRaw)}
}

func checkSource(table sources.Table, info platform.Info) healthCheck {
	src, ok := table.Lookup(info.Identifier)
	if !ok {
		return healthCheck{Name: "Source", Status: "error", Summary: "no download source; " + manualInstallHint}
	}
	summary := fmt.Sprintf("%s %s", src.Format, src.Version)
	if !src.Format.Extractable() && src.Format.NeedsExtraction() {
		return healthCheck{Name: "Source", Status: "warning", Summary: summary + " requires manual installation"}
	}
	if src.Secondary != nil {
		summary += " (+ separate ffprobe download)"
	}
	return healthCheck{Name: "Source", Status: "ok", Summary: summary}
}

func checkConfig(env *environment) healthCheck {
	if err := env.store.Validate(); err != nil {
		return healthCheck{Name: "Config", Status: "warning", Summary: "no valid record; run `ffstatic install`"}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: fmt.Sprintf("%d platform(s) recorded", len(env.store.Read().Platforms))}
}

func checkBinaries(ctx context.Context, env *environment, info platform.Info) healthCheck {
	bins, err := ffstatic.LoadWith(ctx, ffstatic.Options{
		Registry:   env.registry,
		Resolver:   env.resolver,
		Identifier: info.Identifier,
	})
	if err != nil {
		return healthCheck{Name: "Binaries", Status: "warning", Summary: err.Error()}
	}

	var found []string
	var problems []string
	for _, kind := range platform.Kinds() {
		bi := bins.Get(kind)
		if bi == nil {
			problems = append(problems, kind.String()+" missing")
			continue
		}
		label := kind.String() + " " + bi.Version
		// Binaries for another OS are recorded but cannot be executed here.
		if info.Platform == platform.NormalizeOS(runtime.GOOS) {
			v, err := probe.Version(ctx, bi.Path)
			if err != nil {
				problems = append(problems, kind.String()+" does not run")
				continue
			}
			label = kind.String() + " " + v
		}
		found = append(found, label)
	}

	switch {
	case len(problems) == 0:
		return healthCheck{Name: "Binaries", Status: "ok", Summary: strings.Join(found, ", ")}
	case len(found) > 0:
		return healthCheck{Name: "Binaries", Status: "warning", Summary: strings.Join(append(found, problems...), ", ")}
	default:
		return healthCheck{Name: "Binaries", Status: "error", Summary: strings.Join(problems, ", ")}
	}
}

func checkWorkspace(env *environment) healthCheck {
	runs, _ := filepath.Glob(filepath.Join(env.resolver.DownloadsDir(), "run-*"))
	if len(runs) == 0 {
		return healthCheck{Name: "Workspace", Status: "ok", Summary: "clean"}
	}
	return healthCheck{
		Name:    "Workspace",
		Status:  "warning",
		Summary: fmt.Sprintf("%d leftover run dir(s) in %s", len(runs), env.resolver.DownloadsDir()),
	}
}

func writeDoctorResult(cmd *cobra.Command, root string, checks []healthCheck) error {
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), checks)
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("FFSTATIC HEALTH:")+" "+root)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}

	return nil
}
