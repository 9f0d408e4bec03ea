package embedded

import (
	"context"
	"fmt"
	"strings"

	"subplay/internal/language"
	"subplay/internal/media/ffprobe"
)

var codecMIME = map[string]string{
	"subrip": "application/x-subrip",
	"srt":    "application/x-subrip",
	"ass":    "text/x-ssa",
	"ssa":    "text/x-ssa",
	"webvtt": "text/vtt",
	"ttml":   "application/ttml+xml",
}

// ProbeTracks enumerates the subtitle streams of a media file with ffprobe.
// Group is the stream's position among subtitle streams and Index is the
// container stream index. Codecs without a text MIME mapping are reported
// with an "application/x-<codec>" type so FromHost drops them.
func ProbeTracks(ctx context.Context, binary, path string) ([]HostTrack, error) {
	result, err := ffprobe.Inspect(ctx, binary, path)
	if err != nil {
		return nil, fmt.Errorf("probe text tracks: %w", err)
	}
	return HostTracks(result), nil
}

// HostTracks converts an ffprobe result into host track descriptors.
func HostTracks(result ffprobe.Result) []HostTrack {
	streams := result.SubtitleStreams()
	tracks := make([]HostTrack, 0, len(streams))
	for i, stream := range streams {
		codec := strings.ToLower(strings.TrimSpace(stream.CodecName))
		mime, ok := codecMIME[codec]
		if !ok {
			mime = "application/x-" + codec
		}
		tracks = append(tracks, HostTrack{
			Index:    uint32(stream.Index),
			Group:    uint32(i),
			Language: language.ExtractFromTags(stream.Tags),
			Label:    stream.Title(),
			MIMEType: mime,
		})
	}
	return tracks
}
