package language

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"ENG", "en"},
		{"en-US", "en"},
		{"english", "en"},
		{"chs", Simplified},
		{"zh-CN", Simplified},
		{"zh_cn", Simplified},
		{"zh-Hans-HK", Simplified},
		{"langchs", Simplified},
		{"cht", Traditional},
		{"zh-TW", Traditional},
		{"zh-Hant", Traditional},
		{"langcht", Traditional},
		{"chi", "zh"},
		{"zho", "zh"},
		{"fre", "fr"},
		{"xyz", "xyz"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"eng", "English"},
		{"chs", "Chinese (Simplified)"},
		{"zh-tw", "Chinese (Traditional)"},
		{"zh", "Chinese"},
		{"", "Unknown"},
		{"xyz", "XYZ"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DisplayName(tt.input); got != tt.expected {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractFromTags(t *testing.T) {
	tests := []struct {
		name     string
		tags     map[string]string
		expected string
	}{
		{"nil tags", nil, ""},
		{"lowercase key", map[string]string{"language": "eng"}, "eng"},
		{"uppercase key", map[string]string{"LANGUAGE": "CHI"}, "chi"},
		{"ietf preferred", map[string]string{"language": "chi", "language_ietf": "zh-Hant"}, "zh-hant"},
		{"null bytes stripped", map[string]string{"language": "eng\x00"}, "eng"},
		{"undetermined ignored", map[string]string{"language": "und"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractFromTags(tt.tags); got != tt.expected {
				t.Errorf("ExtractFromTags(%v) = %q, want %q", tt.tags, got, tt.expected)
			}
		})
	}
}

func TestPriority(t *testing.T) {
	tests := []struct {
		label string
		code  string
		want  int
	}{
		{"简英双语", "", PrioritySimplifiedBilingual},
		{"简体&英文", "", PrioritySimplifiedBilingual},
		{"chs&eng", "", PrioritySimplifiedBilingual},
		{"简体中文", "", PrioritySimplified},
		{"Movie.chs.srt", "", PrioritySimplified},
		{"繁英雙語", "", PriorityTraditionalBilingual},
		{"繁体双语", "", PriorityTraditionalBilingual},
		{"繁體中文", "", PriorityTraditional},
		{"CHT", "", PriorityTraditional},
		{"英语", "", PriorityEnglish},
		{"English SDH", "", PriorityEnglish},
		{"ChsEng", "", PrioritySimplifiedBilingual},
		{"Bengali", "", PriorityOther},
		{"Bengali", "eng", PriorityEnglish},
		{"Yacht Club", "", PriorityOther},
		{"", "zh-Hans", PrioritySimplified},
		{"", "zh-TW", PriorityTraditional},
		{"", "eng", PriorityEnglish},
		{"Commentary", "jpn", PriorityOther},
		// label wins over code
		{"简体中文", "eng", PrioritySimplified},
	}
	for _, tt := range tests {
		t.Run(tt.label+"/"+tt.code, func(t *testing.T) {
			if got := Priority(tt.label, tt.code); got != tt.want {
				t.Errorf("Priority(%q, %q) = %d, want %d", tt.label, tt.code, got, tt.want)
			}
		})
	}
}

func TestRankOrdersByPriority(t *testing.T) {
	labels := []string{"英语", "简体中文", "简英双语"}
	Rank(labels, func(label string) (string, string) { return label, "" })
	want := []string{"简英双语", "简体中文", "英语"}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("Rank = %v, want %v", labels, want)
	}
}

func TestRankIsStableForTies(t *testing.T) {
	type track struct {
		id    int
		label string
	}
	tracks := []track{{1, "Other"}, {2, "英语"}, {3, "English"}, {4, "Unknown"}, {5, "eng"}}
	Rank(tracks, func(t track) (string, string) { return t.label, "" })
	var ids []int
	for _, tr := range tracks {
		ids = append(ids, tr.id)
	}
	if !reflect.DeepEqual(ids, []int{2, 3, 5, 1, 4}) {
		t.Fatalf("unexpected order %v", ids)
	}
}
