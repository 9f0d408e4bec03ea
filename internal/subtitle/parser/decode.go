package parser

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"subplay/internal/services"
)

// DecodeInfo describes how a payload was decoded.
type DecodeInfo struct {
	Encoding string
	// Lossy is set when invalid UTF-8 was replaced with U+FFFD.
	Lossy bool
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode converts a payload to a UTF-8 string. BOM-marked encodings are
// honoured, valid UTF-8 passes through, and anything else is decoded with
// charset when set. Without a charset invalid bytes are replaced.
func Decode(data []byte, charset string) (string, DecodeInfo, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), DecodeInfo{Encoding: "utf-8"}, nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), "utf-16le", data)
	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), "utf-16be", data)
	}
	if utf8.Valid(data) {
		return string(data), DecodeInfo{Encoding: "utf-8"}, nil
	}
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset != "" {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return "", DecodeInfo{}, services.Wrap(services.ErrConfiguration, "parser", "decode", "unknown charset "+charset, err)
		}
		name, err := htmlindex.Name(enc)
		if err != nil {
			name = charset
		}
		return decodeWith(enc, name, data)
	}
	return strings.ToValidUTF8(string(data), "\ufffd"), DecodeInfo{Encoding: "utf-8", Lossy: true}, nil
}

func decodeWith(enc encoding.Encoding, name string, data []byte) (string, DecodeInfo, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", DecodeInfo{}, services.Wrap(services.ErrFormatUnrecognized, "parser", "decode", "decode "+name, err)
	}
	return string(out), DecodeInfo{Encoding: name}, nil
}
