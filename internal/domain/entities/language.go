package entities

import "strings"

// Language is a supported response language code.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"

	DefaultLanguage = LanguageEnglish
)

var languageAliases = map[string]Language{
	"en":      LanguageEnglish,
	"eng":     LanguageEnglish,
	"english": LanguageEnglish,
	"hi":      LanguageHindi,
	"hin":     LanguageHindi,
	"hindi":   LanguageHindi,
	"हिंदी":   LanguageHindi,
	"हिन्दी":  LanguageHindi,
}

// NormalizeLanguage maps a free-form language code (en, en-US, english, hindi)
// to a supported Language. Unsupported values fall back to DefaultLanguage.
func NormalizeLanguage(code string) Language {
	c := strings.ToLower(strings.TrimSpace(code))
	if lang, ok := languageAliases[c]; ok {
		return lang
	}
	if i := strings.IndexAny(c, "-_"); i > 0 {
		if lang, ok := languageAliases[c[:i]]; ok {
			return lang
		}
	}
	return DefaultLanguage
}
