package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ffstatic/internal/fetch"
	"ffstatic/internal/install"
	"ffstatic/internal/logx"
	"ffstatic/internal/platform"
	"ffstatic/internal/sources"
	"ffstatic/internal/tui"
)

const manualInstallHint = "install ffmpeg manually from https://ffmpeg.org/download.html"

var (
	installPlatform    string
	installFFmpegOnly  bool
	installFFprobeOnly bool
	installSources     string
	installNoProgress  bool
	installYes         bool
	installTimeout     time.Duration
)

func bindInstallFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&installPlatform, "platform", "", "Platform identifier to install instead of the detected one (e.g. linux-x64)")
	cmd.Flags().BoolVar(&installFFmpegOnly, "ffmpeg-only", false, "Install only ffmpeg")
	cmd.Flags().BoolVar(&installFFprobeOnly, "ffprobe-only", false, "Install only ffprobe")
	cmd.Flags().StringVar(&installSources, "sources", "", "YAML, TOML or JSON file overriding download sources")
	cmd.Flags().BoolVar(&installNoProgress, "no-progress", false, "Disable the interactive progress display")
	cmd.Flags().BoolVarP(&installYes, "yes", "y", false, "Install both binaries without prompting")
	cmd.Flags().DurationVar(&installTimeout, "timeout", fetch.DefaultTimeout, "Per-download timeout")
	cmd.MarkFlagsMutuallyExclusive("ffmpeg-only", "ffprobe-only")
}

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Download ffmpeg and ffprobe for this platform",
		Args:  cobra.NoArgs,
		RunE:  runInstall,
	}
	bindInstallFlags(cmd)
	return cmd
}

func runInstall(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	env, err := loadEnvironment(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	table, err := sourceTable(installSources)
	if err != nil {
		return err
	}

	identifier, err := targetIdentifier(ctx, env.registry, table)
	if err != nil {
		return err
	}

	kinds, err := selectKinds(cmd.InOrStdin(), out)
	if err != nil {
		return err
	}

	mode := tui.DetectMode(out, installNoProgress, outputJSON)

	var console io.Writer = cmd.ErrOrStderr()
	if mode == tui.ModeTUI && !verbose {
		console = nil
	}
	logger, closer, err := logx.New(logx.Options{Dir: env.resolver.LogsDir(), Console: console, Verbose: verbose})
	if err != nil {
		return err
	}
	defer closer.Close()

	cfg := install.Config{
		Registry:   env.registry,
		Sources:    table,
		Resolver:   env.resolver,
		Store:      env.store,
		Downloader: fetch.New(fetch.WithTimeout(installTimeout), fetch.WithLogger(logger)),
		Logger:     logger,
	}
	req := install.Request{Identifier: identifier, Kinds: kinds}

	var (
		report     install.Report
		installErr error
	)
	if mode == tui.ModeTUI {
		report, installErr = runInstallTUI(ctx, out, cfg, req)
	} else {
		if mode == tui.ModePlain && !installNoProgress && stderrIsTerminal() {
			sw := tui.NewStatusWriter(cmd.ErrOrStderr())
			defer sw.Stop()
			cfg.Reporter = tui.NewStatusReporter(sw)
		}
		pipeline, err := install.New(cfg)
		if err != nil {
			return err
		}
		report, installErr = pipeline.Install(ctx, req)
	}

	if installErr != nil {
		if errors.Is(installErr, install.ErrUnsupportedPlatform) || errors.Is(installErr, install.ErrNoSource) {
			return fmt.Errorf("%w; %s", installErr, manualInstallHint)
		}
		return installErr
	}

	switch mode {
	case tui.ModeJSON:
		if err := writeJSON(out, report); err != nil {
			return err
		}
	default:
		printInstallReport(out, report)
	}

	if report.Failed() {
		return fmt.Errorf("installation incomplete: %w", report.Err())
	}
	return nil
}

func runInstallTUI(ctx context.Context, out io.Writer, cfg install.Config, req install.Request) (install.Report, error) {
	model := tui.NewProgressModel("ffstatic "+req.Identifier, []tui.Column{
		{Header: "KIND", Width: 8},
		{Header: "STATUS", Width: 12},
		{Header: "PROGRESS", Width: 24},
		{Header: "DETAIL", Width: 40},
	})
	kinds := req.Kinds
	if len(kinds) == 0 {
		kinds = platform.Kinds()
	}
	for _, kind := range kinds {
		model.AddRow(kind.String(), []string{kind.String(), install.StageQueued, "", ""})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		report     install.Report
		installErr error
		finished   = make(chan struct{})
	)
	err := tui.RunWithWork(out, model, func(send func(tea.Msg)) {
		defer close(finished)
		cfg.Reporter = tui.NewInstallReporter(send)
		pipeline, err := install.New(cfg)
		if err != nil {
			installErr = err
			send(tui.ErrorMsg{Err: err})
			return
		}
		report, installErr = pipeline.Install(ctx, req)
		if installErr != nil {
			send(tui.ErrorMsg{Err: installErr})
			return
		}
		for _, o := range report.Outcomes {
			detail := o.Path
			if o.Err != nil {
				detail = o.Err.Error()
			}
			send(tui.RowUpdateMsg{Key: o.Kind.String(), Fields: map[string]string{"DETAIL": tui.NonEmptyOrDash(detail)}})
		}
	})
	// Quitting the display early cancels the downloads.
	cancel()
	<-finished
	if installErr != nil {
		return report, installErr
	}
	return report, err
}

func printInstallReport(w io.Writer, report install.Report) {
	fmt.Fprintf(w, "Platform: %s\n", report.Identifier)
	fmt.Fprintf(w, "%-8s %-10s %-8s %s\n", "KIND", "STATUS", "VERSION", "PATH")
	for _, o := range report.Outcomes {
		status := statusColor(o.Status).Sprintf("%-10s", o.Status)
		fmt.Fprintf(w, "%-8s %s %-8s %s\n", o.Kind, status, tui.NonEmptyOrDash(o.Version), tui.NonEmptyOrDash(o.Path))
		if o.Err != nil {
			fmt.Fprintf(w, "  error: %v\n", o.Err)
		}
	}
}

func statusColor(status install.Status) *color.Color {
	switch status {
	case install.StatusInstalled:
		return color.New(color.FgGreen)
	case install.StatusSkipped:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// targetIdentifier honours --platform, otherwise detects the host. An
// identifier with no registry entry or no source fails here, before any
// prompt or download.
func targetIdentifier(ctx context.Context, registry *platform.Registry, table sources.Table) (string, error) {
	identifier := installPlatform
	if identifier == "" {
		host, err := platform.NewDetector().Detect(ctx)
		if err != nil {
			return "", err
		}
		identifier = host.Identifier()
		if info, ok := registry.Lookup(host.Platform, host.Arch); ok {
			identifier = info.Identifier
		}
	}
	if _, ok := registry.LookupIdentifier(identifier); !ok {
		return "", fmt.Errorf("%w: %s; %s", install.ErrUnsupportedPlatform, identifier, manualInstallHint)
	}
	if _, ok := table.Lookup(identifier); !ok {
		return "", fmt.Errorf("%w: %s; %s", install.ErrNoSource, identifier, manualInstallHint)
	}
	return identifier, nil
}

var (
	stdinIsTerminal  = func() bool { return isTerminal(os.Stdin) }
	stderrIsTerminal = func() bool { return isTerminal(os.Stderr) }
)

// selectKinds turns the only-flags into a kind list, asking interactively
// when neither is set.
func selectKinds(in io.Reader, out io.Writer) ([]platform.Kind, error) {
	switch {
	case installFFmpegOnly:
		return []platform.Kind{platform.KindFFmpeg}, nil
	case installFFprobeOnly:
		return []platform.Kind{platform.KindFFprobe}, nil
	case installYes || outputJSON || !stdinIsTerminal():
		return platform.Kinds(), nil
	}
	return promptKinds(in, out)
}
