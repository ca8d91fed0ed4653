package i18n

import (
	"sort"
	"strings"
)

var languageNames = map[string]string{
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"ru": "Russian",
	"uk": "Ukrainian",
}

func GetLanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

func IsSupported(code string) bool {
	_, ok := languageNames[strings.ToLower(code)]
	return ok
}

// GetLanguagesList returns supported language codes in alphabetical order.
func GetLanguagesList() []string {
	codes := make([]string, 0, len(languageNames))
	for code := range languageNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
