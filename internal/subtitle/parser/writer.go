package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"subplay/internal/subtitle"
)

// FormatTimestamp renders milliseconds as an SRT clock value (HH:MM:SS,mmm).
func FormatTimestamp(ms uint64) string {
	hours := ms / 3_600_000
	ms %= 3_600_000
	minutes := ms / 60_000
	ms %= 60_000
	seconds := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms%1000)
}

// WriteSRT serializes items as a SubRip document numbered from 1.
func WriteSRT(w io.Writer, items []subtitle.Item) error {
	buf := bufio.NewWriter(w)
	for i, item := range items {
		if i > 0 {
			if _, err := buf.WriteString("\n"); err != nil {
				return err
			}
		}
		text := strings.TrimSpace(item.Text)
		if _, err := fmt.Fprintf(buf, "%d\n%s --> %s\n%s\n", i+1, FormatTimestamp(item.StartMs), FormatTimestamp(item.EndMs), text); err != nil {
			return err
		}
	}
	return buf.Flush()
}
