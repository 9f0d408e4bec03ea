// Package parser turns SRT, WebVTT, ASS/SSA and TTML documents into sorted
// subtitle.Item sequences.
//
// Every parser is a pure, best-effort function: a malformed block is dropped
// and counted in Stats.Skipped, and parsing continues with the next block.
// Output is always sorted by StartMs and every item satisfies StartMs <= EndMs.
//
// ParseBytes is the entry point for raw payloads. It decodes the byte stream
// (UTF-8, BOM-marked UTF-16, or an explicitly configured legacy charset),
// resolves the format, and dispatches to the matching parser. WriteSRT
// serializes items back to SubRip.
package parser
