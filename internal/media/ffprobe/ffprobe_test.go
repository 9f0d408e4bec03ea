package ffprobe

import "testing"

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "tags": {"language": "jpn"}},
    {"index": 2, "codec_name": "ass", "codec_type": "subtitle",
     "tags": {"language": "chi", "title": "简英双语"}, "disposition": {"default": 1, "forced": 0}},
    {"index": 3, "codec_name": "subrip", "codec_type": "subtitle",
     "tags": {"language": "eng"}, "disposition": {"default": 0, "forced": 1}}
  ],
  "format": {"filename": "movie.mkv", "duration": "5423.300000", "format_name": "matroska,webm"}
}`

func TestParseExtractsSubtitleStreams(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	subs := result.SubtitleStreams()
	if len(subs) != 2 {
		t.Fatalf("expected 2 subtitle streams, got %d", len(subs))
	}
	if subs[0].Index != 2 || subs[0].Title() != "简英双语" || !subs[0].Default() || subs[0].Forced() {
		t.Fatalf("unexpected first stream %+v", subs[0])
	}
	if subs[1].CodecName != "subrip" || !subs[1].Forced() || subs[1].Title() != "" {
		t.Fatalf("unexpected second stream %+v", subs[1])
	}
	if result.DurationMs() != 5423300 {
		t.Fatalf("unexpected duration %d", result.DurationMs())
	}
}

func TestDurationHandlesInvalidValues(t *testing.T) {
	for _, value := range []string{"", "bad", "-1", "N/A"} {
		if got := (Result{Format: Format{Duration: value}}).DurationMs(); got != 0 {
			t.Fatalf("DurationMs(%q) = %d, want 0", value, got)
		}
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("{")); err == nil {
		t.Fatal("expected error for invalid json")
	}
}
