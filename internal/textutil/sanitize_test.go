package textutil

import (
	"strings"
	"testing"
)

func TestIDToken(t *testing.T) {
	cases := map[string]string{
		"EM-42":             "em-42",
		"  ep/7:final ":     "ep_7_final",
		"__":                "unknown",
		"":                  "unknown",
		"raw_footage.01":    "raw_footage_01",
		"Épisode Été 3":     "episode_ete_3",
		"show -- s01 / e02": "show_--_s01_e02",
	}
	for input, want := range cases {
		if got := IDToken(input); got != want {
			t.Fatalf("IDToken(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestIDTokenCapsLength(t *testing.T) {
	got := IDToken(strings.Repeat("abc_", 40))
	if len(got) > MaxTokenLength {
		t.Fatalf("token length %d exceeds %d", len(got), MaxTokenLength)
	}
	if strings.HasSuffix(got, "_") {
		t.Fatalf("token %q ends with separator", got)
	}
}

func TestFileName(t *testing.T) {
	cases := map[string]string{
		` a/b:c?"d" `:  "a-b-c--d",
		"   ":          "",
		"audio\x00.wav": "audio.wav",
		"../footage":    "footage",
	}
	for input, want := range cases {
		if got := FileName(input); got != want {
			t.Fatalf("FileName(%q) = %q, want %q", input, got, want)
		}
	}
}
