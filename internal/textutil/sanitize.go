package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxTokenLength caps tokens built from job identifiers so scratch directory
// and transcription job names stay short.
const MaxTokenLength = 48

// IDToken folds an identifier such as an edit map id into a lowercase ASCII
// token: accents are stripped, letters and digits kept, '-' and '_' kept, and
// every other run of characters collapses to a single underscore. Empty
// results become "unknown".
func IDToken(value string) string {
	folded, _, err := transform.String(accentFolder(), strings.TrimSpace(value))
	if err != nil {
		folded = value
	}
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
		if b.Len() >= MaxTokenLength {
			break
		}
	}
	out := strings.Trim(b.String(), "_-")
	if len(out) > MaxTokenLength {
		out = strings.Trim(out[:MaxTokenLength], "_-")
	}
	if out == "" {
		return "unknown"
	}
	return out
}

// FileName makes name safe as a single path segment inside a scratch
// directory. Separators and other reserved characters become '-', control
// characters are dropped.
func FileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	cleaned = strings.Trim(cleaned, "-. ")
	return cleaned
}

func accentFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
