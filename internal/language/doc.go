// Package language normalizes language codes from configuration and stream
// metadata tags.
//
// Codes are parsed as BCP 47 tags (golang.org/x/text/language), so "en-US",
// "eng" and "en" all resolve to the same base language.
package language
