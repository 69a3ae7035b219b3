// Package diarize collapses a time-coded token stream into per-speaker segments.
package diarize

import "reelscan/internal/editmap"

// Segments merges consecutive same-speaker tokens in a single forward pass.
// Tokens without a speaker label inherit editmap.DefaultSpeaker, so an
// unlabelled transcript becomes one segment.
func Segments(tokens []editmap.Token) []editmap.SpeakerSegment {
	if len(tokens) == 0 {
		return nil
	}

	segments := make([]editmap.SpeakerSegment, 0, 8)
	var current *editmap.SpeakerSegment
	for _, tok := range tokens {
		speaker := tok.Speaker
		if speaker == "" {
			speaker = editmap.DefaultSpeaker
		}
		if current == nil || current.Speaker != speaker {
			segments = append(segments, editmap.SpeakerSegment{
				Speaker:   speaker,
				StartTime: tok.StartTime,
				EndTime:   tok.EndTime,
				Words:     []string{tok.Word},
			})
			current = &segments[len(segments)-1]
			continue
		}
		current.EndTime = tok.EndTime
		current.Words = append(current.Words, tok.Word)
	}
	return segments
}
