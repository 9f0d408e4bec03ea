package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subplay/internal/embedded"
	"subplay/internal/subtitle"
)

type tracksView struct {
	Media    string                   `json:"media"`
	Streams  int                      `json:"subtitle_streams"`
	Tracks   []subtitle.EmbeddedTrack `json:"tracks"`
	Selected *subtitle.EmbeddedTrack  `json:"selected,omitempty"`
}

func newTracksCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tracks <media-file>",
		Short: "List embedded text subtitle tracks and the one that would be selected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			media := strings.TrimSpace(args[0])
			if _, err := os.Stat(media); err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("media file %q not found", media)
				}
				return fmt.Errorf("stat media: %w", err)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			host, err := embedded.ProbeTracks(cmd.Context(), cfg.Subtitles.FFprobeBinary, media)
			if err != nil {
				return err
			}
			view := tracksView{
				Media:   media,
				Streams: len(host),
				Tracks:  embedded.Ranked(embedded.FromHost(host)),
			}
			if selected, ok := embedded.Select(view.Tracks); ok {
				view.Selected = &selected
			}
			if jsonOutput {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			if len(view.Tracks) == 0 {
				fmt.Fprintf(out, "No text subtitle tracks in %s (%d subtitle streams probed)\n", media, view.Streams)
				return nil
			}
			rows := make([][]string, 0, len(view.Tracks))
			for _, track := range view.Tracks {
				marker := ""
				if view.Selected != nil && track.TrackIndex == view.Selected.TrackIndex {
					marker = "*"
				}
				rows = append(rows, []string{
					marker,
					strconv.FormatUint(uint64(track.TrackIndex), 10),
					strconv.FormatUint(uint64(track.GroupIndex), 10),
					valueOrDash(track.Language),
					truncate(valueOrDash(track.Label), 40),
					track.Format.String(),
					track.MIMEType,
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "Sel"},
				{header: "Track", right: true},
				{header: "Group", right: true},
				{header: "Language"},
				{header: "Label"},
				{header: "Format"},
				{header: "MIME"},
			}, rows))
			if skipped := view.Streams - len(view.Tracks); skipped > 0 {
				fmt.Fprintf(out, "%d non-text subtitle streams ignored\n", skipped)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
