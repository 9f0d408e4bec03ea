package subtitle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"path"
	"strings"
)

// Format is the closed set of subtitle formats the parsers understand.
type Format int

const (
	FormatUnknown Format = iota
	FormatSRT
	FormatVTT
	FormatASS
	FormatTTML
)

var formatNames = map[Format]string{
	FormatSRT:  "srt",
	FormatVTT:  "vtt",
	FormatASS:  "ass",
	FormatTTML: "ttml",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// Extension returns the canonical file extension including the dot.
func (f Format) Extension() string {
	if f == FormatUnknown {
		return ""
	}
	return "." + f.String()
}

// Known reports whether f is one of the supported formats.
func (f Format) Known() bool {
	_, ok := formatNames[f]
	return ok
}

func (f Format) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Format) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, ok := ParseFormat(name)
	if !ok && name != "unknown" && name != "" {
		return fmt.Errorf("subtitle format %q not recognized", name)
	}
	*f = parsed
	return nil
}

// ParseFormat maps a format name or extension ("srt", ".ass", "ssa", "xml") to a Format.
func ParseFormat(name string) (Format, bool) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "srt", "subrip":
		return FormatSRT, true
	case "vtt", "webvtt":
		return FormatVTT, true
	case "ass", "ssa":
		return FormatASS, true
	case "ttml", "dfxp", "xml":
		return FormatTTML, true
	default:
		return FormatUnknown, false
	}
}

// FormatFromExtension derives the format from a file name's extension.
func FormatFromExtension(name string) (Format, bool) {
	ext := path.Ext(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if ext == "" {
		return FormatUnknown, false
	}
	return ParseFormat(ext)
}

// FormatFromMIME maps a MIME type reported by a container or HTTP server.
func FormatFromMIME(mimeType string) (Format, bool) {
	media, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		media = strings.ToLower(strings.TrimSpace(mimeType))
	}
	switch media {
	case "application/x-subrip", "text/x-subrip", "application/x-srt", "text/srt":
		return FormatSRT, true
	case "text/vtt", "text/webvtt":
		return FormatVTT, true
	case "text/x-ssa", "text/x-ass", "application/x-ass", "application/x-ssa":
		return FormatASS, true
	case "application/ttml+xml", "application/ttaf+xml", "application/xml+ttml":
		return FormatTTML, true
	}
	return FormatUnknown, false
}

// DeclaredFormats interprets a remote subtype hint such as "Subrip(srt)",
// "ASS/SRT" or "VobSub". A single entry is authoritative, several entries mean the payload
// must be sniffed, and an empty result marks the candidate as unsupported.
func DeclaredFormats(hint string) []Format {
	fields := strings.FieldsFunc(hint, func(r rune) bool {
		switch r {
		case '/', ',', '+', '|', ' ', ';', '(', ')':
			return true
		}
		return false
	})
	var out []Format
	for _, field := range fields {
		format, ok := ParseFormat(field)
		if !ok {
			continue
		}
		duplicate := false
		for _, existing := range out {
			if existing == format {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, format)
		}
	}
	return out
}

// Sniff detects a format from content signatures, checked in a fixed order:
// a WEBVTT header, then a TTML/XML root, then an ASS [Script Info] section.
// Everything else is treated as SRT.
func Sniff(content []byte) Format {
	head := content
	if len(head) > 4096 {
		head = head[:4096]
	}
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	trimmed := bytes.TrimLeft(head, " \t\r\n")
	switch {
	case bytes.HasPrefix(trimmed, []byte("WEBVTT")):
		return FormatVTT
	case bytes.HasPrefix(trimmed, []byte("<?xml")), bytes.HasPrefix(trimmed, []byte("<tt")):
		return FormatTTML
	case bytes.Contains(bytes.ToLower(head), []byte("[script info]")):
		return FormatASS
	default:
		return FormatSRT
	}
}

// ResolveFormat picks a format for a payload: a single declared format wins,
// then the file extension, then content sniffing. The returned bool is false
// when the result came from the SRT fallback of Sniff.
func ResolveFormat(declared []Format, fileName string, content []byte) (Format, bool) {
	if len(declared) == 1 {
		return declared[0], true
	}
	if format, ok := FormatFromExtension(fileName); ok {
		return format, true
	}
	format := Sniff(content)
	if format != FormatSRT {
		return format, true
	}
	return format, looksLikeSRT(content)
}

func looksLikeSRT(content []byte) bool {
	return bytes.Contains(content, []byte("-->"))
}
