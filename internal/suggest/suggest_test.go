package suggest

import (
	"testing"

	"reelscan/internal/editmap"
)

func TestCutsFromSentenceFinalTokens(t *testing.T) {
	tokens := []editmap.Token{
		{Word: "Hello", StartTime: 0, EndTime: 0.5},
		{Word: ".", StartTime: 0.5, EndTime: 0.6},
		{Word: "World", StartTime: 0.7, EndTime: 1.1},
		{Word: "?", StartTime: 1.1, EndTime: 1.2},
	}

	cuts := Cuts(tokens, editmap.AudioEvents{})

	if len(cuts) != 2 {
		t.Fatalf("expected 2 cuts, got %d: %+v", len(cuts), cuts)
	}
	for i, want := range []float64{0.6, 1.2} {
		if cuts[i].Type != editmap.CutSentenceEnd {
			t.Fatalf("cut %d: expected sentence_end, got %s", i, cuts[i].Type)
		}
		if cuts[i].Confidence != 0.7 {
			t.Fatalf("cut %d: expected confidence 0.7, got %v", i, cuts[i].Confidence)
		}
		if cuts[i].Time != want {
			t.Fatalf("cut %d: expected time %v, got %v", i, want, cuts[i].Time)
		}
	}
}

func TestCutsIgnoreAttachedPunctuation(t *testing.T) {
	tokens := []editmap.Token{{Word: "Hello.", EndTime: 1}, {Word: "...", EndTime: 2}}
	if cuts := Cuts(tokens, editmap.AudioEvents{}); len(cuts) != 0 {
		t.Fatalf("expected only bare punctuation tokens to cut, got %+v", cuts)
	}
}

func TestCutsFromSilences(t *testing.T) {
	events := editmap.AudioEvents{Silences: []editmap.Silence{
		{Start: 1, End: 1.5},
		{Start: 3, End: 3.51},
		{Start: 10, End: 14},
	}}
	tokens := []editmap.Token{{Word: "!", EndTime: 2}}

	cuts := Cuts(tokens, events)

	if len(cuts) != 3 {
		t.Fatalf("expected 3 cuts, got %+v", cuts)
	}
	if cuts[0].Time != 3 || cuts[0].Type != editmap.CutSilence || cuts[0].Confidence != 0.9 {
		t.Fatalf("unexpected first cut %+v", cuts[0])
	}
	if cuts[1].Time != 10 {
		t.Fatalf("unexpected second cut %+v", cuts[1])
	}
	if cuts[2].Type != editmap.CutSentenceEnd {
		t.Fatalf("expected sentence cut last, got %+v", cuts[2])
	}
}

func TestBRoll(t *testing.T) {
	cases := []struct {
		name    string
		entry   editmap.ActiveSpeakerEntry
		reasons []editmap.BRollReason
	}{
		{
			name:    "off camera only",
			entry:   editmap.ActiveSpeakerEntry{Character: editmap.OffCamera, Text: "so anyway"},
			reasons: []editmap.BRollReason{editmap.ReasonSpeakerOffCamera},
		},
		{
			name:    "visual cue on camera",
			entry:   editmap.ActiveSpeakerEntry{Character: "person_1", Text: "okay Check This Out now"},
			reasons: []editmap.BRollReason{editmap.ReasonVisualCue},
		},
		{
			name:    "both",
			entry:   editmap.ActiveSpeakerEntry{Character: editmap.OffCamera, Text: "LOOK AT that"},
			reasons: []editmap.BRollReason{editmap.ReasonSpeakerOffCamera, editmap.ReasonVisualCue},
		},
		{
			name:  "neither",
			entry: editmap.ActiveSpeakerEntry{Character: "person_1", Text: "looking good"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.entry.StartTime, tc.entry.EndTime = 4, 9
			got := BRoll([]editmap.ActiveSpeakerEntry{tc.entry})
			if len(got) != len(tc.reasons) {
				t.Fatalf("expected %d opportunities, got %+v", len(tc.reasons), got)
			}
			for i, reason := range tc.reasons {
				if got[i].Reason != reason {
					t.Fatalf("opportunity %d: expected %s, got %s", i, reason, got[i].Reason)
				}
				if got[i].StartTime != 4 || got[i].EndTime != 9 {
					t.Fatalf("opportunity %d: unexpected range %+v", i, got[i])
				}
			}
		})
	}
}
