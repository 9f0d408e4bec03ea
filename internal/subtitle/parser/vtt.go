package parser

import (
	"strings"

	"subplay/internal/subtitle"
)

var vttSkippedBlocks = []string{"NOTE", "STYLE", "REGION"}

func parseVTT(content string) ([]subtitle.Item, Stats) {
	var stats Stats
	var items []subtitle.Item
	lines := strings.Split(normalizeNewlines(content), "\n")

	// Header and metadata lines before the first timing line are ignored.
	i := 0
	for i < len(lines) && !strings.Contains(lines[i], "-->") {
		i++
	}
	blockStart := true
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			blockStart = true
			i++
			continue
		}
		if blockStart && isSkippedVTTBlock(line) {
			for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
				i++
			}
			continue
		}
		blockStart = false
		if !strings.Contains(line, "-->") {
			// cue identifier
			i++
			continue
		}
		startText, endText, _ := splitTiming(line)
		start, end := span(clockOrZero(startText), clockOrZero(endText))
		i++
		var textLines []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			textLines = append(textLines, lines[i])
			i++
		}
		text := cleanLines(decodeEntities(anyTagPattern.ReplaceAllString(strings.Join(textLines, "\n"), "")))
		if text == "" {
			stats.Skipped++
			continue
		}
		items = append(items, subtitle.Item{StartMs: start, EndMs: end, Text: text})
	}
	return finish(items, stats)
}

func isSkippedVTTBlock(line string) bool {
	for _, keyword := range vttSkippedBlocks {
		if line == keyword || strings.HasPrefix(line, keyword+" ") || strings.HasPrefix(line, keyword+"\t") {
			return true
		}
	}
	return false
}
