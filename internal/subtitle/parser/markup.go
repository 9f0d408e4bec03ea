package parser

import (
	"html"
	"regexp"
	"strings"
)

var (
	// Opening or closing HTML-style tags such as <i>, </font>, <v Speaker>.
	htmlTagPattern = regexp.MustCompile(`</?[A-Za-z][^<>]*>`)
	// Any angle-bracket tag, including VTT timestamp tags like <00:00:01.000>.
	anyTagPattern = regexp.MustCompile(`<[^<>]*>`)
)

func normalizeNewlines(content string) string {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}

// cleanLines trims each line and drops empty ones.
func cleanLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func stripHTMLTags(text string) string {
	return htmlTagPattern.ReplaceAllString(text, "")
}

func decodeEntities(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	return strings.ReplaceAll(html.UnescapeString(text), "\u00a0", " ")
}

// splitBlocks splits normalized content into blank-line separated blocks of
// non-blank lines.
func splitBlocks(content string) [][]string {
	var blocks [][]string
	var current []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// splitTiming splits "start --> end [settings]" into its two timestamps.
func splitTiming(line string) (string, string, bool) {
	left, right, found := strings.Cut(line, "-->")
	if !found {
		return "", "", false
	}
	fields := strings.Fields(right)
	end := ""
	if len(fields) > 0 {
		end = fields[0]
	}
	return strings.TrimSpace(left), end, true
}
