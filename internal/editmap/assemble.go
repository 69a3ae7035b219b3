package editmap

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Parts holds every stage output feeding an EditMap.
type Parts struct {
	Job             AnalysisJob
	DurationSeconds float64
	Tokens          []Token
	Segments        []SpeakerSegment
	AudioEvents     AudioEvents
	Presence        []PresenceInterval
	ActiveSpeakers  []ActiveSpeakerEntry
	SceneBoundaries []SceneBoundaryMark
	Cuts            []Cut
	BRoll           []BRollOpportunity
	Warnings        []string
}

// Assemble builds the EditMap for a finished job. Nil stage outputs become
// empty lists so consumers never see JSON nulls for computed tracks.
func Assemble(parts Parts, now time.Time) EditMap {
	speakers := make(map[string]struct{})
	for _, seg := range parts.Segments {
		speakers[seg.Speaker] = struct{}{}
	}

	events := parts.AudioEvents
	events.Silences = nonNil(events.Silences)

	return EditMap{
		EditMapID:       parts.Job.EditMapID,
		RawFootageID:    parts.Job.RawFootageID,
		EpisodeID:       parts.Job.EpisodeID,
		DurationSeconds: parts.DurationSeconds,
		Transcript:      nonNil(parts.Tokens),
		Speakers:        nonNil(parts.Segments),
		AudioEvents:     events,
		Presence:        nonNil(parts.Presence),
		ActiveSpeakers:  nonNil(parts.ActiveSpeakers),
		SceneBoundaries: nonNil(parts.SceneBoundaries),
		CutPoints:       nonNil(parts.Cuts),
		BRoll:           nonNil(parts.BRoll),
		SpeakerCount:    len(speakers),
		WordCount:       len(parts.Tokens),
		Warnings:        append([]string(nil), parts.Warnings...),
		GeneratedAt:     now.UTC(),
	}
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}

func joinWords(words []string) string {
	return strings.Join(words, " ")
}

var errMissingField = errors.New("missing required field")

func errMissing(field string) error {
	return fmt.Errorf("%w: %s", errMissingField, field)
}
