// Package transcription drives the speech-to-text collaborator.
//
// A Service starts named jobs, reports their state, and returns the finished
// transcript as time-coded tokens. Two implementations exist: HTTPService
// talks to a remote job API, and WhisperXService runs WhisperX locally in the
// background behind the same asynchronous contract. Transcriber owns the
// per-job flow: stage the audio, start the job, poll on a fixed interval
// until a terminal state, and fetch the result. The poll loop is bounded by a
// maximum wait and stops as soon as the job context is cancelled.
package transcription
