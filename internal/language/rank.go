package language

import (
	"sort"
	"strings"
)

// Priority values, lower is preferred.
const (
	PrioritySimplifiedBilingual  = 1
	PrioritySimplified           = 2
	PriorityTraditionalBilingual = 3
	PriorityTraditional          = 4
	PriorityEnglish              = 5
	PriorityOther                = 99
)

// Priority ranks a track by its free-text label first and its language code
// second. CJK label markers are substring matches; the ASCII markers chs, cht
// and eng must start a word, checked in priority order.
func Priority(label, code string) int {
	if p, ok := labelPriority(label); ok {
		return p
	}
	return codePriority(code)
}

func labelPriority(label string) (int, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return 0, false
	}
	chs, cht, eng := asciiMarkers(l)
	english := strings.Contains(l, "英") || eng
	switch {
	case strings.Contains(l, "简") && (strings.Contains(l, "英") || strings.Contains(l, "双语")):
		return PrioritySimplifiedBilingual, true
	case chs && english:
		return PrioritySimplifiedBilingual, true
	case strings.Contains(l, "简") || chs:
		return PrioritySimplified, true
	case strings.Contains(l, "繁") && (strings.Contains(l, "英") || strings.Contains(l, "雙語") || strings.Contains(l, "双语")):
		return PriorityTraditionalBilingual, true
	case cht && english:
		return PriorityTraditionalBilingual, true
	case strings.Contains(l, "繁") || cht:
		return PriorityTraditional, true
	case english:
		return PriorityEnglish, true
	}
	return 0, false
}

// asciiMarkers scans runs of ASCII letters in a lowercased label. A run may
// chain markers ("chseng"), but a marker never matches mid-word ("bengali").
func asciiMarkers(l string) (chs, cht, eng bool) {
	isLetter := func(r rune) bool { return r >= 'a' && r <= 'z' }
	words := strings.FieldsFunc(l, func(r rune) bool { return !isLetter(r) })
	for _, word := range words {
		for word != "" {
			switch {
			case strings.HasPrefix(word, "chs"):
				chs = true
				word = word[3:]
			case strings.HasPrefix(word, "cht"):
				cht = true
				word = word[3:]
			case strings.HasPrefix(word, "eng"):
				eng = true
				word = ""
			default:
				word = ""
			}
		}
	}
	return chs, cht, eng
}

func codePriority(code string) int {
	switch Normalize(code) {
	case Simplified, "zh":
		return PrioritySimplified
	case Traditional:
		return PriorityTraditional
	case English:
		return PriorityEnglish
	default:
		return PriorityOther
	}
}

// Rank stable-sorts items by Priority of the label and code key returns.
// Items with equal priority keep their input order.
func Rank[T any](items []T, key func(T) (label, code string)) {
	priorities := make([]int, len(items))
	for i, item := range items {
		label, code := key(item)
		priorities[i] = Priority(label, code)
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return priorities[idx[a]] < priorities[idx[b]]
	})
	sorted := make([]T, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
}
