package statecharts

import (
	"sort"
	"strings"
	"unicode"
)

func Camel(text string) string {
	text = strings.Map(func(chr rune) rune {
		if unicode.In(chr, unicode.Letter, unicode.Digit) {
			return chr
		}
		return 32
	}, text)
	text = strings.Title(text)
	text = strings.Map(func(chr rune) rune {
		if unicode.In(chr, unicode.Letter, unicode.Digit) {
			return chr
		}
		return -1
	}, text)
	return text
}

func Capitalize(text string) string {
	if text == "" {
		return text
	}
	var runes = []rune(text)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func StringSet(list []string) []string {
	var dict = make(map[string]bool)
	for _, str := range list {
		dict[str] = true
	}
	list = nil
	for str := range dict {
		list = append(list, str)
	}
	sort.Strings(list)
	return list
}

// IsIdent reports whether text is a plain identifier: a letter or underscore
// followed by letters, digits or underscores. Backends escape anything else.
func IsIdent(text string) bool {
	if text == "" {
		return false
	}
	for idx, chr := range text {
		if chr == '_' || unicode.IsLetter(chr) {
			continue
		}
		if idx > 0 && unicode.IsDigit(chr) {
			continue
		}
		return false
	}
	return true
}

// Basename derives the machine base name from an input path: the file stem
// with its first letter capitalized.
func Basename(path string) string {
	var stem = path
	if idx := strings.LastIndexAny(stem, "/\\"); idx != -1 {
		stem = stem[idx+1:]
	}
	if idx := strings.LastIndex(stem, "."); idx > 0 {
		stem = stem[:idx]
	}
	return Capitalize(stem)
}
