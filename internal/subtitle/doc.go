// Package subtitle defines the timed-text data model shared by the parsers,
// the remote client, the embedded-track selector and the playback manager.
//
// Key types:
//   - Item: one cue with closed millisecond bounds
//   - Format: the closed set of supported subtitle formats
//   - Track: a selectable remote or file-backed candidate
//   - EmbeddedTrack: a text track already exposed by the host player
//
// Format detection (FormatFromExtension, FormatFromMIME, DeclaredFormats,
// Sniff, ResolveFormat) and active-cue lookup (ActiveAt, Timeline) live here so every
// consumer applies the same ordered rules.
package subtitle
