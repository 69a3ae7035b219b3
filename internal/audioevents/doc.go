// Package audioevents detects timed audio events in the extracted speech
// track.
//
// Silence comes from ffmpeg's silencedetect trace. Laughter, music and
// applause are classifier hooks: when no classifier is configured the
// corresponding list stays nil, which consumers must read as "not computed".
package audioevents
