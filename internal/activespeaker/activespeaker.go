// Package activespeaker fuses diarized speech with on-screen presence.
package activespeaker

import (
	"fmt"

	"reelscan/internal/editmap"
)

// Policy selects how a speech segment is matched to a presence interval.
type Policy string

const (
	// Containment requires the presence interval to cover the whole segment.
	Containment Policy = "containment"
	// Overlap accepts a presence interval covering at least MinFraction of the segment.
	Overlap Policy = "overlap"
)

// Matcher attributes speaker segments to characters.
type Matcher struct {
	Policy      Policy
	MinFraction float64
}

// NewMatcher validates the policy and returns a matcher.
func NewMatcher(policy Policy, minFraction float64) (Matcher, error) {
	switch policy {
	case "", Containment:
		return Matcher{Policy: Containment}, nil
	case Overlap:
		if minFraction <= 0 || minFraction > 1 {
			return Matcher{}, fmt.Errorf("overlap fraction must be in (0,1], got %v", minFraction)
		}
		return Matcher{Policy: Overlap, MinFraction: minFraction}, nil
	default:
		return Matcher{}, fmt.Errorf("unknown speaker match policy %q", policy)
	}
}

// Resolve uses strict containment.
func Resolve(segments []editmap.SpeakerSegment, presence []editmap.PresenceInterval) []editmap.ActiveSpeakerEntry {
	return Matcher{Policy: Containment}.Resolve(segments, presence)
}

// Resolve produces one entry per segment. The first matching presence
// interval in input order wins; no match yields editmap.OffCamera.
func (m Matcher) Resolve(segments []editmap.SpeakerSegment, presence []editmap.PresenceInterval) []editmap.ActiveSpeakerEntry {
	entries := make([]editmap.ActiveSpeakerEntry, 0, len(segments))
	for _, seg := range segments {
		character := editmap.OffCamera
		for _, p := range presence {
			if m.matches(seg, p) {
				character = p.PersonID
				break
			}
		}
		entries = append(entries, editmap.ActiveSpeakerEntry{
			Speaker:   seg.Speaker,
			Character: character,
			StartTime: seg.StartTime,
			EndTime:   seg.EndTime,
			Text:      seg.Text(),
		})
	}
	return entries
}

func (m Matcher) matches(seg editmap.SpeakerSegment, p editmap.PresenceInterval) bool {
	if p.StartTime <= seg.StartTime && seg.EndTime <= p.EndTime {
		return true
	}
	if m.Policy != Overlap {
		return false
	}
	length := seg.EndTime - seg.StartTime
	if length <= 0 {
		return false
	}
	overlap := min(seg.EndTime, p.EndTime) - max(seg.StartTime, p.StartTime)
	return overlap > 0 && overlap/length >= m.MinFraction
}
