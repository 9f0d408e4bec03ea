package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"subplay/internal/remote"
	"subplay/internal/subtitle/parser"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "fetch <query>",
		Short: "Download the best remote match and write it as SRT",
		Long: "Searches the remote service, loads the highest ranked candidate that " +
			"downloads and parses, and writes the cues as normalized SubRip. Without " +
			"--output the document goes to stdout.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("fetch query is required")
			}
			client, err := ctx.remoteClient()
			if err != nil {
				return err
			}
			result, err := client.AutoLoad(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("fetch %q: %w", query, err)
			}

			target := strings.TrimSpace(outputPath)
			if target == "" {
				if err := parser.WriteSRT(cmd.OutOrStdout(), result.Items); err != nil {
					return fmt.Errorf("write subtitles: %w", err)
				}
			} else if err := writeSRTFile(target, result); err != nil {
				return err
			}
			printFetchSummary(cmd.ErrOrStderr(), result, target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the SRT document to this file")
	return cmd
}

func writeSRTFile(target string, result remote.Result) error {
	if dir := filepath.Dir(target); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %q: %w", dir, err)
		}
	}
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := parser.WriteSRT(file, result.Items); err != nil {
		file.Close()
		return fmt.Errorf("write subtitles: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

func printFetchSummary(out io.Writer, result remote.Result, target string) {
	source := result.FileName
	if source == "" {
		source = result.Track.Name
	}
	cached := ""
	if result.Cached {
		cached = ", cached"
	}
	fmt.Fprintf(out, "Loaded %d cues from %s (%s, %s, attempt %d%s)\n",
		len(result.Items), valueOrDash(source), result.Format, valueOrDash(result.Encoding), result.Attempts, cached)
	if target != "" {
		fmt.Fprintf(out, "Wrote %s\n", target)
	}
}
