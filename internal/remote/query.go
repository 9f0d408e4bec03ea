package remote

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	bracketPattern = regexp.MustCompile(`\[[^\]]*\]|【[^】]*】|\([^)]*\)|\{[^}]*\}`)
	separatorRun   = regexp.MustCompile(`[._\s]+`)
	episodePattern = regexp.MustCompile(`(?i)^s\d{1,2}e\d{1,3}$`)
	yearPattern    = regexp.MustCompile(`^(19|20)\d{2}$`)
	resolutionTag  = regexp.MustCompile(`(?i)^\d{3,4}[pi]$`)
)

var releaseTags = map[string]struct{}{
	"4k": {}, "uhd": {}, "bluray": {}, "blu-ray": {}, "bdrip": {}, "brrip": {}, "web-dl": {}, "webdl": {},
	"webrip": {}, "hdtv": {}, "dvdrip": {}, "remux": {}, "x264": {}, "x265": {}, "h264": {},
	"h265": {}, "hevc": {}, "avc": {}, "hdr": {}, "10bit": {}, "aac": {}, "dts": {}, "proper": {}, "repack": {},
}

var mediaExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {}, ".ts": {}, ".m2ts": {},
	".webm": {}, ".rmvb": {}, ".iso": {}, ".m4v": {},
}

// QueryFromFilename derives a search query from a media file name. Bracket
// groups are dropped and the title is cut at the first year or release tag;
// an SxxEyy token is kept as the final word.
func QueryFromFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	if ext := filepath.Ext(base); ext != "" {
		if _, ok := mediaExtensions[strings.ToLower(ext)]; ok {
			base = strings.TrimSuffix(base, ext)
		}
	}
	fallback := strings.TrimSpace(separatorRun.ReplaceAllString(base, " "))

	cleaned := bracketPattern.ReplaceAllString(base, " ")
	words := strings.Fields(separatorRun.ReplaceAllString(cleaned, " "))
	kept := make([]string, 0, len(words))
	for i, word := range words {
		lower := strings.ToLower(word)
		if episodePattern.MatchString(word) {
			kept = append(kept, strings.ToUpper(word))
			break
		}
		if i > 0 && yearPattern.MatchString(word) {
			break
		}
		if resolutionTag.MatchString(word) {
			break
		}
		if _, ok := releaseTags[lower]; ok {
			break
		}
		kept = append(kept, word)
	}
	query := strings.Join(kept, " ")
	if query == "" {
		return fallback
	}
	return query
}
