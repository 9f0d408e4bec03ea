package main

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"subplay/internal/subtitle/parser"
)

// truncate shortens value to limit runes, marking the cut with an ellipsis.
func truncate(value string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}

// singleLine flattens multi-line cue text for table and status output.
func singleLine(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func formatClock(ms uint64) string {
	return parser.FormatTimestamp(ms)
}

func formatUploaded(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01-02")
}

func formatDelay(ms int64) string {
	switch {
	case ms > 0:
		return fmt.Sprintf("+%dms", ms)
	case ms < 0:
		return fmt.Sprintf("%dms", ms)
	default:
		return "0ms"
	}
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
