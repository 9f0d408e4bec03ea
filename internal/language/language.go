package language

import "strings"

// Canonical tags for the Chinese script variants that ranking distinguishes.
const (
	Simplified  = "zh-hans"
	Traditional = "zh-hant"
	English     = "en"
)

type entry struct {
	tag     string   // canonical tag (ISO 639-1, or zh-hans/zh-hant)
	display string   // human-readable name
	aliases []string // ISO 639-2 codes, region tags, word forms, provider flags
}

var languages = []entry{
	{Simplified, "Chinese (Simplified)", []string{"chs", "zh-cn", "zh-sg", "zh_cn", "sc", "gb", "简体", "简体中文", "langchs"}},
	{Traditional, "Chinese (Traditional)", []string{"cht", "zh-tw", "zh-hk", "zh-mo", "zh_tw", "tc", "big5", "繁体", "繁體", "繁体中文", "繁體中文", "langcht"}},
	{"zh", "Chinese", []string{"zho", "chi", "chinese", "中文"}},
	{English, "English", []string{"eng", "english", "英语", "英文", "langeng"}},
	{"ja", "Japanese", []string{"jpn", "japanese", "日语", "langjap"}},
	{"ko", "Korean", []string{"kor", "korean", "韩语", "langkor"}},
	{"es", "Spanish", []string{"spa", "spanish", "langesp"}},
	{"fr", "French", []string{"fra", "fre", "french", "langfre"}},
	{"de", "German", []string{"deu", "ger", "german", "langger"}},
	{"ru", "Russian", []string{"rus", "russian", "langrus"}},
}

var byKey map[string]*entry

func init() {
	byKey = make(map[string]*entry, len(languages)*6)
	for i := range languages {
		e := &languages[i]
		byKey[e.tag] = e
		for _, alias := range e.aliases {
			byKey[alias] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	code = strings.ReplaceAll(code, "_", "-")
	if e, ok := byKey[code]; ok {
		return e
	}
	// Script subtags win over region subtags: zh-hans-hk is simplified.
	switch {
	case strings.HasPrefix(code, "zh-hans"):
		return byKey[Simplified]
	case strings.HasPrefix(code, "zh-hant"):
		return byKey[Traditional]
	}
	if base, _, found := strings.Cut(code, "-"); found {
		return byKey[base]
	}
	return nil
}

// Normalize converts a language code, region tag, provider flag or word form
// to its canonical tag. Unrecognized input is returned lowercased.
func Normalize(code string) string {
	if e := lookup(code); e != nil {
		return e.tag
	}
	return strings.ToLower(strings.TrimSpace(code))
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// ExtractFromTags extracts and normalizes the language from stream metadata tags.
// Checks common tag keys: language, LANGUAGE, Language, language_ietf, lang, LANG.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := []string{"language_ietf", "language", "LANGUAGE", "Language", "lang", "LANG"}
	for _, key := range keys {
		if value, ok := tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
			if value != "" && !strings.EqualFold(value, "und") {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}
