package parser

import (
	"regexp"
	"strings"

	"subplay/internal/subtitle"
)

var (
	ttmlParagraphPattern = regexp.MustCompile(`(?is)<(?:tt:)?p\b([^>]*?)(/>|>(.*?)</(?:tt:)?p\s*>)`)
	ttmlAttrPattern      = regexp.MustCompile(`(?i)(?:^|\s)(begin|end|dur)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	ttmlBreakPattern     = regexp.MustCompile(`(?i)<(?:tt:)?br\s*/?>(?:\s*</(?:tt:)?br\s*>)?`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
)

func parseTTML(content string) ([]subtitle.Item, Stats) {
	var stats Stats
	var items []subtitle.Item
	for _, match := range ttmlParagraphPattern.FindAllStringSubmatch(normalizeNewlines(content), -1) {
		// Self-closing paragraphs carry no text.
		if match[2] == "/>" {
			stats.Skipped++
			continue
		}
		attrs := ttmlAttributes(match[1])
		beginText, hasBegin := attrs["begin"]
		if !hasBegin {
			stats.Skipped++
			continue
		}
		begin, _ := parseOffsetTime(beginText)
		var end uint64
		if endText, ok := attrs["end"]; ok {
			end, _ = parseOffsetTime(endText)
		} else if durText, ok := attrs["dur"]; ok {
			if dur, ok := parseOffsetTime(durText); ok {
				end = begin + dur
			}
		}
		start, end := span(begin, end)

		body := whitespacePattern.ReplaceAllString(match[3], " ")
		body = ttmlBreakPattern.ReplaceAllString(body, "\n")
		body = anyTagPattern.ReplaceAllString(body, "")
		text := cleanLines(decodeEntities(body))
		if text == "" {
			stats.Skipped++
			continue
		}
		items = append(items, subtitle.Item{StartMs: start, EndMs: end, Text: text})
	}
	return finish(items, stats)
}

func ttmlAttributes(raw string) map[string]string {
	attrs := make(map[string]string, 3)
	for _, m := range ttmlAttrPattern.FindAllStringSubmatch(raw, -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		attrs[strings.ToLower(m[1])] = value
	}
	return attrs
}
