package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subplay/internal/remote"
)

type candidateView struct {
	Rank     int       `json:"rank"`
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Language string    `json:"language,omitempty"`
	Formats  []string  `json:"formats,omitempty"`
	Priority int       `json:"priority"`
	Uploaded time.Time `json:"uploaded,omitzero"`
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the remote service and list ranked candidates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("search query is required")
			}
			client, err := ctx.remoteClient()
			if err != nil {
				return err
			}
			candidates, err := client.Search(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("search %q: %w", query, err)
			}

			views := candidateViews(candidates)
			if jsonOutput {
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintf(out, "No subtitles found for %q\n", query)
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					strconv.Itoa(v.Rank),
					v.ID,
					truncate(v.Name, 48),
					valueOrDash(v.Language),
					valueOrDash(strings.Join(v.Formats, ",")),
					formatUploaded(v.Uploaded),
					strconv.Itoa(v.Priority),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "#", right: true},
				{header: "ID"},
				{header: "Name"},
				{header: "Language", maxWidth: 20},
				{header: "Format"},
				{header: "Uploaded"},
				{header: "Priority", right: true},
			}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func candidateViews(candidates []remote.Candidate) []candidateView {
	views := make([]candidateView, 0, len(candidates))
	for i, c := range candidates {
		formats := make([]string, 0, len(c.Declared))
		for _, f := range c.Declared {
			formats = append(formats, f.String())
		}
		views = append(views, candidateView{
			Rank:     i + 1,
			ID:       c.Track.ID,
			Name:     c.Track.Name,
			Language: c.Track.Language,
			Formats:  formats,
			Priority: c.Priority,
			Uploaded: c.Uploaded,
		})
	}
	return views
}
