package parser

import (
	"log/slog"

	"subplay/internal/logging"
	"subplay/internal/services"
	"subplay/internal/subtitle"
)

// Stats summarizes a parse run.
type Stats struct {
	Cues    int
	Skipped int
}

// Parse dispatches content to the parser for format. Unknown formats are
// parsed as SRT.
func Parse(format subtitle.Format, content string) []subtitle.Item {
	items, _ := ParseWithStats(format, content)
	return items
}

// ParseWithStats is Parse plus per-document counters.
func ParseWithStats(format subtitle.Format, content string) ([]subtitle.Item, Stats) {
	switch format {
	case subtitle.FormatVTT:
		return parseVTT(content)
	case subtitle.FormatASS:
		return parseASS(content)
	case subtitle.FormatTTML:
		return parseTTML(content)
	default:
		return parseSRT(content)
	}
}

func finish(items []subtitle.Item, stats Stats) ([]subtitle.Item, Stats) {
	subtitle.SortItems(items)
	stats.Cues = len(items)
	return items, stats
}

// Options configures ParseBytes.
type Options struct {
	// Format forces a parser; FormatUnknown means detect.
	Format subtitle.Format
	// Declared carries format hints from the source (e.g. a remote subtype).
	Declared []subtitle.Format
	// FileName is used for extension based detection.
	FileName string
	// Charset names a legacy encoding for non UTF-8 payloads.
	Charset string
	Logger  *slog.Logger
}

// Document is a decoded and parsed subtitle payload.
type Document struct {
	Items    []subtitle.Item
	Format   subtitle.Format
	Encoding string
	Stats    Stats
}

// ParseBytes decodes data, resolves its format and parses it. A payload that
// yields no cues is reported as ErrFormatUnrecognized.
func ParseBytes(data []byte, opts Options) (Document, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	text, info, err := Decode(data, opts.Charset)
	if err != nil {
		return Document{}, err
	}
	if info.Lossy {
		logger.Warn("subtitle payload is not valid UTF-8",
			logging.String("file", opts.FileName),
			logging.String(logging.FieldEventType, "subtitle_charset_unknown"),
			logging.String(logging.FieldErrorHint, "set subtitles.charset (e.g. gbk or big5) to decode legacy encodings"),
			logging.String(logging.FieldImpact, "invalid characters replaced"),
		)
	}

	format := opts.Format
	recognized := format.Known()
	if !recognized {
		format, recognized = subtitle.ResolveFormat(opts.Declared, opts.FileName, []byte(text))
	}
	items, stats := ParseWithStats(format, text)
	doc := Document{Items: items, Format: format, Encoding: info.Encoding, Stats: stats}
	if len(items) == 0 {
		message := "payload contains no cues"
		if !recognized {
			message = "content signature not recognized"
		}
		return doc, services.Wrap(services.ErrFormatUnrecognized, "parser", "parse", message, nil)
	}
	if stats.Skipped > 0 {
		logger.Debug("subtitle blocks skipped",
			logging.String("file", opts.FileName),
			logging.String("format", format.String()),
			logging.Int("skipped", stats.Skipped),
			logging.Int("cues", stats.Cues),
		)
	}
	return doc, nil
}
