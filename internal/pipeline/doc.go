// Package pipeline runs the analysis of one AnalysisJob end to end.
//
// An Analyzer owns a job-local scratch directory for the lifetime of one
// Analyze call: it retrieves the footage, probes and extracts speech audio,
// then runs transcription (followed by diarization), audio-event detection,
// presence tracking, and scene detection concurrently. Once all four tracks
// join it resolves active speakers, suggests cuts and B-roll, and assembles
// the EditMap. The scratch directory is released on every return path.
//
// Audio-event and presence failures degrade to empty tracks with a warning
// unless configured fatal; every other stage failure fails the job and
// cancels the tracks still running.
package pipeline
