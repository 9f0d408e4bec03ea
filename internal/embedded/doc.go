// Package embedded chooses which of the host player's own text tracks to
// activate. It never reads cue content: the host renders embedded cues through
// its own pipeline and only needs to know which track to turn on.
//
// FromHost converts the host's track enumeration, Select applies the language
// priority ranking, and ProbeTracks enumerates the subtitle streams of a media
// container through ffprobe for hosts without their own track inspection.
package embedded
