package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subplay/internal/logging"
	"subplay/internal/subtitle"
	"subplay/internal/subtitle/parser"
)

type documentView struct {
	File     string          `json:"file"`
	Format   subtitle.Format `json:"format"`
	Encoding string          `json:"encoding"`
	Cues     int             `json:"cues"`
	Skipped  int             `json:"skipped"`
	Items    []subtitle.Item `json:"items"`
}

func newParseCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var charsetFlag string
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a local subtitle file and list its cues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.TrimSpace(args[0])
			data, err := os.ReadFile(source)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("subtitle file %q not found", source)
				}
				return fmt.Errorf("read subtitle file: %w", err)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			opts := parser.Options{
				FileName: filepath.Base(source),
				Charset:  cfg.Subtitles.Charset,
				Logger:   logging.NewComponentLogger(logger, "parser"),
			}
			if c := strings.TrimSpace(charsetFlag); c != "" {
				opts.Charset = strings.ToLower(c)
			}
			if f := strings.TrimSpace(formatFlag); f != "" {
				format, ok := subtitle.ParseFormat(f)
				if !ok {
					return fmt.Errorf("unknown subtitle format %q (use srt, vtt, ass or ttml)", f)
				}
				opts.Format = format
			}

			doc, err := parser.ParseBytes(data, opts)
			if err != nil {
				return fmt.Errorf("parse %s: %w", source, err)
			}

			items := doc.Items
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}
			if jsonOutput {
				return writeJSON(cmd, documentView{
					File:     source,
					Format:   doc.Format,
					Encoding: doc.Encoding,
					Cues:     doc.Stats.Cues,
					Skipped:  doc.Stats.Skipped,
					Items:    items,
				})
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(items))
			for i, item := range items {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					formatClock(item.StartMs),
					formatClock(item.EndMs),
					singleLine(item.Text),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "#", right: true},
				{header: "Start"},
				{header: "End"},
				{header: "Text", maxWidth: 60},
			}, rows))
			fmt.Fprintf(out, "Format: %s  Encoding: %s  Cues: %d  Skipped: %d\n",
				doc.Format, doc.Encoding, doc.Stats.Cues, doc.Stats.Skipped)
			if len(items) < len(doc.Items) {
				fmt.Fprintf(out, "Showing first %d cues (use --limit 0 for all)\n", len(items))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "", "Force a parser (srt, vtt, ass, ttml) instead of detecting")
	cmd.Flags().StringVar(&charsetFlag, "charset", "", "Legacy charset for non UTF-8 files (overrides subtitles.charset)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many cues (0 shows all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
