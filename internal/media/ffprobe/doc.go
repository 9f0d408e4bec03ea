// Package ffprobe provides a typed wrapper around ffprobe JSON output, used
// to enumerate the text tracks of a media container.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: stream properties including tags and disposition flags
//
// Inspect executes ffprobe; Parse decodes previously captured output.
package ffprobe
