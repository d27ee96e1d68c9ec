package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var platformsSources string

type platformRow struct {
	Identifier string `json:"identifier"`
	Platform   string `json:"platform"`
	Arch       string `json:"arch"`
	FFmpeg     string `json:"ffmpeg"`
	FFprobe    string `json:"ffprobe"`
	Format     string `json:"format,omitempty"`
	Version    string `json:"version,omitempty"`
	Secondary  bool   `json:"secondary"`
}

func newPlatformsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platforms",
		Short: "List supported platforms and their download sources",
		Args:  cobra.NoArgs,
		RunE:  runPlatforms,
	}
	cmd.Flags().StringVar(&platformsSources, "sources", "", "Sources file to overlay on the built-in table")
	return cmd
}

func runPlatforms(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	table, err := sourceTable(platformsSources)
	if err != nil {
		return err
	}

	var rows []platformRow
	for _, info := range env.registry.Entries() {
		row := platformRow{
			Identifier: info.Identifier,
			Platform:   info.Platform,
			Arch:       info.Arch,
			FFmpeg:     info.BinaryName.FFmpeg,
			FFprobe:    info.BinaryName.FFprobe,
		}
		if src, ok := table.Lookup(info.Identifier); ok {
			row.Format = string(src.Format)
			row.Version = src.Version
			row.Secondary = src.Secondary != nil
		}
		rows = append(rows, row)
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), rows)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-14s %-8s %-8s %-12s %s\n", "IDENTIFIER", "FORMAT", "VERSION", "FFMPEG", "FFPROBE")
	for _, r := range rows {
		format := r.Format
		if format == "" {
			format = "(none)"
		}
		probe := r.FFprobe
		if r.Secondary {
			probe += " (separate download)"
		}
		fmt.Fprintf(w, "%-14s %-8s %-8s %-12s %s\n", r.Identifier, format, r.Version, r.FFmpeg, probe)
	}
	return nil
}
