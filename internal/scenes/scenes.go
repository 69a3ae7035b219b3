// Package scenes detects visual cut points with ffmpeg's scene-change score.
package scenes

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"reelscan/internal/editmap"
)

// DefaultThreshold is the scene-change score a frame must exceed.
const DefaultThreshold = 0.3

// SceneTracer produces a showinfo trace of frames whose scene score exceeds threshold.
type SceneTracer interface {
	SceneTrace(ctx context.Context, video string, threshold float64) ([]byte, error)
}

// Detector finds scene boundaries.
type Detector struct {
	tracer    SceneTracer
	threshold float64
}

// NewDetector returns a Detector. A threshold outside (0,1) falls back to
// DefaultThreshold.
func NewDetector(tracer SceneTracer, threshold float64) *Detector {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	return &Detector{tracer: tracer, threshold: threshold}
}

// Threshold returns the effective threshold.
func (d *Detector) Threshold() float64 { return d.threshold }

// Detect returns ordered cut marks for video.
func (d *Detector) Detect(ctx context.Context, video string) ([]editmap.SceneBoundaryMark, error) {
	trace, err := d.tracer.SceneTrace(ctx, video, d.threshold)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return ParseShowinfo(trace), nil
}

// ParseShowinfo extracts pts_time values from showinfo lines, sorted and
// de-duplicated.
func ParseShowinfo(output []byte) []editmap.SceneBoundaryMark {
	seen := make(map[float64]struct{})
	var times []float64

	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "showinfo") {
			continue
		}
		_, rest, found := strings.Cut(line, "pts_time:")
		if !found {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		seconds, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || seconds < 0 {
			continue
		}
		if _, dup := seen[seconds]; dup {
			continue
		}
		seen[seconds] = struct{}{}
		times = append(times, seconds)
	}
	sort.Float64s(times)

	marks := make([]editmap.SceneBoundaryMark, 0, len(times))
	for _, ts := range times {
		marks = append(marks, editmap.SceneBoundaryMark{Time: ts, Type: editmap.SceneCut})
	}
	return marks
}

// String renders a compact summary for logs.
func String(marks []editmap.SceneBoundaryMark) string {
	if len(marks) == 0 {
		return "none"
	}
	parts := make([]string, 0, min(len(marks), 5))
	for i, m := range marks {
		if i == 5 {
			parts = append(parts, fmt.Sprintf("+%d more", len(marks)-5))
			break
		}
		parts = append(parts, strconv.FormatFloat(m.Time, 'f', 2, 64))
	}
	return strings.Join(parts, ", ")
}
