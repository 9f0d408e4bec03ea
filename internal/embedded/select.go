package embedded

import (
	"sort"
	"strings"

	"subplay/internal/language"
	"subplay/internal/subtitle"
)

// HostTrack is one text track as enumerated by the host player.
type HostTrack struct {
	Index    uint32 `json:"index"`
	Group    uint32 `json:"group"`
	Language string `json:"language"`
	Label    string `json:"label"`
	MIMEType string `json:"mime_type"`
}

// FromHost converts host tracks, dropping anything whose MIME type is not a
// supported text format (bitmap subtitles, metadata tracks).
func FromHost(tracks []HostTrack) []subtitle.EmbeddedTrack {
	out := make([]subtitle.EmbeddedTrack, 0, len(tracks))
	for _, track := range tracks {
		format, ok := subtitle.FormatFromMIME(track.MIMEType)
		if !ok {
			continue
		}
		out = append(out, subtitle.EmbeddedTrack{
			TrackIndex: track.Index,
			GroupIndex: track.Group,
			Language:   language.Normalize(track.Language),
			Label:      strings.TrimSpace(track.Label),
			Format:     format,
			MIMEType:   strings.TrimSpace(track.MIMEType),
		})
	}
	return out
}

// Select returns the best track by language priority, ties broken by
// ascending track index. It reports false for an empty input.
func Select(tracks []subtitle.EmbeddedTrack) (subtitle.EmbeddedTrack, bool) {
	if len(tracks) == 0 {
		return subtitle.EmbeddedTrack{}, false
	}
	ranked := Ranked(tracks)
	return ranked[0], true
}

// Ranked returns a ranked copy of tracks; the input is left untouched.
func Ranked(tracks []subtitle.EmbeddedTrack) []subtitle.EmbeddedTrack {
	ranked := append([]subtitle.EmbeddedTrack(nil), tracks...)
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].TrackIndex < ranked[b].TrackIndex
	})
	language.Rank(ranked, func(t subtitle.EmbeddedTrack) (string, string) {
		return t.Label, t.Language
	})
	return ranked
}
