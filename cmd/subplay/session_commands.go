package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subplay/internal/session"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and reset persisted media sessions",
	}

	sessionCmd.AddCommand(newSessionListCommand(ctx))
	sessionCmd.AddCommand(newSessionResetCommand(ctx))

	return sessionCmd
}

func newSessionListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List media sessions with their delay and search state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *session.Store) error {
				records, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					if records == nil {
						records = []session.Record{}
					}
					return writeJSON(cmd, records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No sessions recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, r := range records {
					rows = append(rows, []string{
						truncate(r.MediaKey, 40),
						yesNo(r.AutoSearched),
						formatDelay(r.DelayMs),
						truncate(valueOrDash(r.TrackName), 40),
						r.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					{header: "Media"},
					{header: "Searched"},
					{header: "Delay", right: true},
					{header: "Track"},
					{header: "Updated"},
				}, rows))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newSessionResetCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reset [media-key]",
		Short: "Forget the delay and automatic search state of a media item",
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("pass a media key or --all, not both")
			}
			if !all && len(args) != 1 {
				return errors.New("provide the media key to reset (see `subplay session list`) or --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *session.Store) error {
				out := cmd.OutOrStdout()
				if all {
					removed, err := store.ResetAll(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d sessions\n", removed)
					return nil
				}
				key := strings.TrimSpace(args[0])
				removed, err := store.Reset(cmd.Context(), key)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(out, "No session for %s\n", key)
					return nil
				}
				fmt.Fprintf(out, "Reset session %s\n", key)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Reset every session")
	return cmd
}
