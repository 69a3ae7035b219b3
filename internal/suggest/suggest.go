// Package suggest derives candidate cut points and B-roll opportunities from
// upstream analysis tracks.
//
// Both rule families emit raw, unranked candidates. Consumers apply their own
// selection policy.
package suggest

import (
	"strings"

	"golang.org/x/text/cases"

	"reelscan/internal/editmap"
)

const (
	// MinSilenceSeconds is the strict lower bound on silence length for a cut.
	MinSilenceSeconds = 0.5
	// SilenceConfidence is the weight of silence-derived cuts.
	SilenceConfidence = 0.9
	// SentenceEndConfidence is the weight of punctuation-derived cuts.
	SentenceEndConfidence = 0.7
)

// VisualCuePhrases trigger product close-up suggestions.
var VisualCuePhrases = []string{"look at", "check this out"}

var sentenceFinal = map[string]struct{}{".": {}, "!": {}, "?": {}}

// Cuts unions silence cuts and sentence-end cuts. Silence cuts come first, in
// event order, followed by sentence-end cuts in token order.
func Cuts(tokens []editmap.Token, events editmap.AudioEvents) []editmap.Cut {
	cuts := make([]editmap.Cut, 0, len(events.Silences))
	for _, s := range events.Silences {
		if s.Duration() > MinSilenceSeconds {
			cuts = append(cuts, editmap.Cut{Time: s.Start, Type: editmap.CutSilence, Confidence: SilenceConfidence})
		}
	}
	for _, tok := range tokens {
		if _, ok := sentenceFinal[tok.Word]; ok {
			cuts = append(cuts, editmap.Cut{Time: tok.EndTime, Type: editmap.CutSentenceEnd, Confidence: SentenceEndConfidence})
		}
	}
	return cuts
}

// BRoll flags off-camera speech and visual-cue phrasing. One entry can yield
// both opportunities.
func BRoll(entries []editmap.ActiveSpeakerEntry) []editmap.BRollOpportunity {
	fold := cases.Fold()
	phrases := make([]string, len(VisualCuePhrases))
	for i, p := range VisualCuePhrases {
		phrases[i] = fold.String(p)
	}

	var out []editmap.BRollOpportunity
	for _, entry := range entries {
		if entry.Character == editmap.OffCamera {
			out = append(out, editmap.BRollOpportunity{
				StartTime:        entry.StartTime,
				EndTime:          entry.EndTime,
				Reason:           editmap.ReasonSpeakerOffCamera,
				SuggestedContent: editmap.ContentReactionShot,
			})
		}
		if containsAny(fold.String(entry.Text), phrases) {
			out = append(out, editmap.BRollOpportunity{
				StartTime:        entry.StartTime,
				EndTime:          entry.EndTime,
				Reason:           editmap.ReasonVisualCue,
				SuggestedContent: editmap.ContentProductCloseup,
			})
		}
	}
	return out
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
