package parser

import (
	"strings"

	"subplay/internal/subtitle"
)

func parseSRT(content string) ([]subtitle.Item, Stats) {
	var stats Stats
	var items []subtitle.Item
	for _, block := range splitBlocks(normalizeNewlines(content)) {
		if len(block) < 3 {
			stats.Skipped++
			continue
		}
		timing := -1
		for i := 0; i < 2; i++ {
			if strings.Contains(block[i], "-->") {
				timing = i
				break
			}
		}
		if timing < 0 {
			stats.Skipped++
			continue
		}
		startText, endText, _ := splitTiming(block[timing])
		start, end := span(clockOrZero(startText), clockOrZero(endText))

		text := strings.Join(block[timing+1:], "\n")
		// Some encoders carry {\an8}-style override blocks over from ASS sources.
		text = assOverridePattern.ReplaceAllString(text, "")
		text = cleanLines(decodeEntities(stripHTMLTags(text)))
		if text == "" {
			stats.Skipped++
			continue
		}
		items = append(items, subtitle.Item{StartMs: start, EndMs: end, Text: text})
	}
	return finish(items, stats)
}
