package audioevents

import (
	"context"
	"fmt"

	"reelscan/internal/editmap"
)

// SilenceTracer produces a silencedetect trace for an audio file.
type SilenceTracer interface {
	SilenceTrace(ctx context.Context, audio string, noiseDB, minSeconds float64) ([]byte, error)
}

// Classifier detects one family of audio events.
type Classifier interface {
	Classify(ctx context.Context, audioPath string) ([]editmap.Interval, error)
}

// Classifiers holds the optional event classifiers. Nil entries are skipped.
type Classifiers struct {
	Laughter Classifier
	Music    Classifier
	Applause Classifier
}

// Detector runs silence detection and any configured classifiers.
type Detector struct {
	tracer      SilenceTracer
	noiseDB     float64
	minSeconds  float64
	classifiers Classifiers
}

// NewDetector returns a Detector using the given silencedetect settings.
func NewDetector(tracer SilenceTracer, noiseDB, minSeconds float64, classifiers Classifiers) *Detector {
	return &Detector{tracer: tracer, noiseDB: noiseDB, minSeconds: minSeconds, classifiers: classifiers}
}

// Detect returns the audio events for audioPath. Any failure returns an error;
// callers decide whether that degrades or fails the job.
func (d *Detector) Detect(ctx context.Context, audioPath string) (editmap.AudioEvents, error) {
	var events editmap.AudioEvents

	trace, err := d.tracer.SilenceTrace(ctx, audioPath, d.noiseDB, d.minSeconds)
	if err != nil {
		if ctx.Err() != nil {
			return events, ctx.Err()
		}
		return events, err
	}
	silences, err := ParseSilenceOutput(trace)
	if err != nil {
		return events, err
	}
	events.Silences = silences

	for _, hook := range []struct {
		name       string
		classifier Classifier
		dest       *[]editmap.Interval
	}{
		{"laughter", d.classifiers.Laughter, &events.Laughter},
		{"music", d.classifiers.Music, &events.Music},
		{"applause", d.classifiers.Applause, &events.Applause},
	} {
		if hook.classifier == nil {
			continue
		}
		found, err := hook.classifier.Classify(ctx, audioPath)
		if err != nil {
			return events, fmt.Errorf("%s classifier: %w", hook.name, err)
		}
		if found == nil {
			found = []editmap.Interval{}
		}
		*hook.dest = found
	}
	return events, nil
}
