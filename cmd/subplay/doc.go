// Package main hosts the subplay CLI entrypoint and command graph.
//
// The Cobra-based command tree drives the subtitle engine from a terminal:
// remote search and download, local parsing, embedded track inspection,
// simulated playback against the subtitle manager, and session maintenance.
// It centralizes configuration resolution and logger setup so subcommands
// only wire components together.
//
// Keep this package lean: new behavior belongs in the internal packages
// first and is surfaced here through dedicated commands or flags.
package main
