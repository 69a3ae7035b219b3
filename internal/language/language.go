package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// words maps English language names that appear in stream titles.
var words = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
}

func base(code string) (language.Base, bool) {
	code = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(code, "\u0000", "")))
	if code == "" {
		return language.Base{}, false
	}
	if mapped, ok := words[code]; ok {
		code = mapped
	}
	tag, err := language.Parse(code)
	if err != nil {
		b, err := language.ParseBase(code)
		if err != nil {
			return language.Base{}, false
		}
		return b, true
	}
	b, conf := tag.Base()
	if conf == language.No {
		return language.Base{}, false
	}
	return b, true
}

// ToISO2 converts a language tag, ISO 639-2 code, or English name to
// ISO 639-1. Unrecognized input returns "".
func ToISO2(code string) string {
	b, ok := base(code)
	if !ok {
		return ""
	}
	s := b.String()
	if len(s) != 2 {
		return ""
	}
	return s
}

// DisplayName returns the English name for a recognized code.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	b, ok := base(code)
	if !ok {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	return display.English.Languages().Name(b)
}

// ExtractFromTags returns the lower-cased language tag from stream metadata.
func ExtractFromTags(tags map[string]string) string {
	for _, key := range []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"} {
		if value, ok := tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
			if value != "" {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}

// Matches reports whether two codes share a base language.
func Matches(a, b string) bool {
	x, y := ToISO2(a), ToISO2(b)
	return x != "" && x == y
}
