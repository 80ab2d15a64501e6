package dictionary

import (
	"strings"
	"unicode"
)

// FilterFunc returns true when an entry should be kept.
type FilterFunc func(Entry) bool

// All keeps entries accepted by every filter.
func All(filters ...FilterFunc) FilterFunc {
	return func(e Entry) bool {
		for _, f := range filters {
			if !f(e) {
				return false
			}
		}
		return true
	}
}

// PracticeFilter keeps entries that translate to plain words: no Plover
// commands or formatting ({...}) and at least one letter.
func PracticeFilter(e Entry) bool {
	word := strings.TrimSpace(e.Word)
	if word == "" || word != e.Word {
		return false
	}
	if strings.ContainsAny(word, "{}") {
		return false
	}
	for _, r := range word {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// FilterForLang returns a language-specific word filter. Unknown languages
// accept everything.
func FilterForLang(lang string) FilterFunc {
	switch strings.ToLower(lang) {
	case "en":
		return filterEnglish
	default:
		return func(Entry) bool { return true }
	}
}

func filterEnglish(e Entry) bool {
	if e.Word == "" {
		return false
	}
	for i := 0; i < len(e.Word); i++ {
		ch := e.Word[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '\'':
		default:
			return false
		}
	}
	return true
}
