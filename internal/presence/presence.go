// Package presence tracks when visual identities are on screen.
//
// Tracker is the seam for a real face/person tracking engine. Placeholder
// satisfies the same contract until one is available.
package presence

import (
	"context"

	"reelscan/internal/editmap"
)

// Tracker produces presence intervals for a video.
type Tracker interface {
	Track(ctx context.Context, videoPath string) ([]editmap.PresenceInterval, error)
}

// PlaceholderPersonID is the identity the placeholder reports.
const PlaceholderPersonID = "person_1"

// Placeholder reports one identity on screen for a fixed opening span.
type Placeholder struct {
	Seconds    float64
	Confidence float64
}

// NewPlaceholder returns a Placeholder spanning the first seconds of video.
func NewPlaceholder(seconds float64) Placeholder {
	if seconds <= 0 {
		seconds = 60
	}
	return Placeholder{Seconds: seconds, Confidence: 0.5}
}

// Track implements Tracker.
func (p Placeholder) Track(ctx context.Context, _ string) ([]editmap.PresenceInterval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []editmap.PresenceInterval{{
		PersonID:      PlaceholderPersonID,
		StartTime:     0,
		EndTime:       p.Seconds,
		Confidence:    p.Confidence,
		BoundingBoxes: []editmap.BoundingBox{},
	}}, nil
}
