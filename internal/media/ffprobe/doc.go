// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Prober: runs ffprobe through an injectable command runner
//
// Helper methods on Result provide stream counts and duration parsing. The
// pipeline uses DurationSeconds for the EditMap's total duration and the
// stream list to pick the audio track to extract.
package ffprobe
