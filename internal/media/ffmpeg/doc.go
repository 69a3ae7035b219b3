// Package ffmpeg builds and runs the ffmpeg invocations the analysis pipeline
// needs: the normalized speech audio profile, the silencedetect trace, and the
// scene-change trace.
//
// Trace commands return ffmpeg's combined output unparsed; the audioevents and
// scenes packages own the parsing. Tests swap the command runner to avoid
// needing ffmpeg on the host.
package ffmpeg
