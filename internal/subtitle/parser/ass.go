package parser

import (
	"regexp"
	"strings"

	"subplay/internal/subtitle"
)

var (
	defaultASSColumns = []string{"layer", "start", "end", "style", "name", "marginl", "marginr", "marginv", "effect", "text"}

	assOverridePattern = regexp.MustCompile(`\{[^{}]*\}`)
	assDrawingPattern  = regexp.MustCompile(`\\p(\d+)`)
	assEscapePattern   = regexp.MustCompile(`\\[A-Za-z]+(\([^)]*\)|[-0-9.&H]*)`)
)

type assColumns struct {
	count int
	start int
	end   int
	text  int
}

func newASSColumns(names []string) (assColumns, bool) {
	cols := assColumns{count: len(names), start: -1, end: -1, text: -1}
	for i, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "start":
			cols.start = i
		case "end":
			cols.end = i
		case "text":
			cols.text = i
		}
	}
	// Text must be the trailing column so commas inside it survive the split.
	ok := cols.start >= 0 && cols.end >= 0 && cols.text == cols.count-1
	return cols, ok
}

func parseASS(content string) ([]subtitle.Item, Stats) {
	var stats Stats
	var items []subtitle.Item

	cols, _ := newASSColumns(defaultASSColumns)
	colsValid := true
	inEvents := false
	for _, raw := range strings.Split(normalizeNewlines(content), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inEvents = strings.EqualFold(line, "[Events]")
			continue
		}
		if !inEvents {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "format":
			cols, colsValid = newASSColumns(strings.Split(value, ","))
		case "dialogue":
			if !colsValid {
				stats.Skipped++
				continue
			}
			fields := strings.SplitN(value, ",", cols.count)
			if len(fields) < cols.count {
				stats.Skipped++
				continue
			}
			start, end := span(clockOrZero(fields[cols.start]), clockOrZero(fields[cols.end]))
			text := cleanASSText(fields[cols.text])
			if text == "" {
				stats.Skipped++
				continue
			}
			items = append(items, subtitle.Item{StartMs: start, EndMs: end, Text: text})
		}
	}
	return finish(items, stats)
}

// cleanASSText removes override blocks and drawing commands and translates
// the \N, \n and \h escapes.
func cleanASSText(text string) string {
	var b strings.Builder
	drawing := false
	for len(text) > 0 {
		loc := assOverridePattern.FindStringIndex(text)
		if loc == nil {
			if !drawing {
				b.WriteString(text)
			}
			break
		}
		if !drawing {
			b.WriteString(text[:loc[0]])
		}
		for _, match := range assDrawingPattern.FindAllStringSubmatch(text[loc[0]:loc[1]], -1) {
			drawing = match[1] != "0"
		}
		text = text[loc[1]:]
	}
	out := b.String()
	out = strings.NewReplacer(`\N`, "\n", `\n`, "\n", `\h`, " ").Replace(out)
	out = assEscapePattern.ReplaceAllString(out, "")
	return cleanLines(out)
}
