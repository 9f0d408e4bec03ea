package parser

import (
	"math"
	"strconv"
	"strings"
)

// parseClock parses colon clock values: H:MM:SS.fff, MM:SS.fff or H:MM:SS,fff.
// The fraction is scaled by its digit count, so ".5", ".50" and ".500" are all
// 500ms. Fractions longer than three digits are truncated.
func parseClock(value string) (uint64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	clock, frac := value, ""
	if idx := strings.LastIndexAny(value, ".,"); idx >= 0 {
		clock, frac = value[:idx], value[idx+1:]
	}
	parts := strings.Split(clock, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var hours, minutes, seconds uint64
	var ok bool
	if len(parts) == 3 {
		if hours, ok = parseDigits(parts[0]); !ok {
			return 0, false
		}
		parts = parts[1:]
	}
	if minutes, ok = parseDigits(parts[0]); !ok {
		return 0, false
	}
	if seconds, ok = parseDigits(parts[1]); !ok {
		return 0, false
	}
	millis, ok := parseFraction(frac)
	if !ok {
		return 0, false
	}
	return ((hours*60+minutes)*60+seconds)*1000 + millis, true
}

func parseFraction(frac string) (uint64, bool) {
	if frac == "" {
		return 0, true
	}
	if len(frac) > 3 {
		frac = frac[:3]
	}
	value, ok := parseDigits(frac)
	if !ok {
		return 0, false
	}
	for i := len(frac); i < 3; i++ {
		value *= 10
	}
	return value, true
}

func parseDigits(value string) (uint64, bool) {
	if value == "" {
		return 0, false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return 0, false
		}
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// parseOffsetTime parses TTML time expressions: clock values, or a number
// followed by one of the metrics h, m, s, ms.
func parseOffsetTime(value string) (uint64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if strings.Contains(value, ":") {
		return parseClock(value)
	}
	var scale float64
	var number string
	switch {
	case strings.HasSuffix(value, "ms"):
		scale, number = 1, strings.TrimSuffix(value, "ms")
	case strings.HasSuffix(value, "s"):
		scale, number = 1000, strings.TrimSuffix(value, "s")
	case strings.HasSuffix(value, "m"):
		scale, number = 60_000, strings.TrimSuffix(value, "m")
	case strings.HasSuffix(value, "h"):
		scale, number = 3_600_000, strings.TrimSuffix(value, "h")
	default:
		return 0, false
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(number), 64)
	if err != nil || parsed < 0 || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return uint64(math.Round(parsed * scale)), true
}

// span resolves a start/end pair. Unparseable values become 0 and the end is
// clamped so it never precedes the start.
func span(start, end uint64) (uint64, uint64) {
	if end < start {
		end = start
	}
	return start, end
}

func clockOrZero(value string) uint64 {
	ms, _ := parseClock(value)
	return ms
}
