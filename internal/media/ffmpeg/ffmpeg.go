package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegCommand is the default ffmpeg binary name.
const FFmpegCommand = "ffmpeg"

// SampleRate is the speech analysis sample rate in Hz.
const SampleRate = 16000

// CommandRunner executes a binary and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Tool runs ffmpeg.
type Tool struct {
	binary string
	run    CommandRunner
}

// New returns a Tool for the given ffmpeg binary.
func New(binary string) *Tool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = FFmpegCommand
	}
	return &Tool{binary: binary, run: execCombined}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *Tool) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		t.run = runner
	}
}

// Binary returns the ffmpeg binary name or path.
func (t *Tool) Binary() string {
	return t.binary
}

// ExtractAudio transcodes one audio stream of source to mono 16 kHz signed
// 16-bit PCM at dest. A negative audioIndex lets ffmpeg pick the stream.
func (t *Tool) ExtractAudio(ctx context.Context, source string, audioIndex int, dest string) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(dest) == "" {
		return fmt.Errorf("extract audio: source and destination required")
	}
	if output, err := t.run(ctx, t.binary, ExtractAudioArgs(source, audioIndex, dest)...); err != nil {
		return fmt.Errorf("ffmpeg extract: %w: %s", err, tail(output))
	}
	return nil
}

// SilenceTrace runs silencedetect over audio and returns the filter trace.
func (t *Tool) SilenceTrace(ctx context.Context, audio string, noiseDB, minSeconds float64) ([]byte, error) {
	output, err := t.run(ctx, t.binary, SilenceArgs(audio, noiseDB, minSeconds)...)
	if err != nil {
		return output, fmt.Errorf("ffmpeg silencedetect: %w: %s", err, tail(output))
	}
	return output, nil
}

// SceneTrace runs the scene-change filter over video and returns the showinfo trace.
func (t *Tool) SceneTrace(ctx context.Context, video string, threshold float64) ([]byte, error) {
	output, err := t.run(ctx, t.binary, SceneArgs(video, threshold)...)
	if err != nil {
		return output, fmt.Errorf("ffmpeg scene detect: %w: %s", err, tail(output))
	}
	return output, nil
}

// ExtractAudioArgs returns the argument list for the speech audio profile.
func ExtractAudioArgs(source string, audioIndex int, dest string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
	}
	if audioIndex >= 0 {
		args = append(args, "-map", fmt.Sprintf("0:%d", audioIndex))
	}
	return append(args,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(SampleRate),
		"-c:a", "pcm_s16le",
		dest,
	)
}

// SilenceArgs returns the argument list for a silencedetect pass.
func SilenceArgs(audio string, noiseDB, minSeconds float64) []string {
	filter := fmt.Sprintf("silencedetect=noise=%sdB:d=%s", formatFloat(noiseDB), formatFloat(minSeconds))
	return []string{
		"-hide_banner",
		"-nostats",
		"-i", audio,
		"-af", filter,
		"-f", "null",
		"-",
	}
}

// SceneArgs returns the argument list for a scene-change pass.
func SceneArgs(video string, threshold float64) []string {
	filter := fmt.Sprintf("select='gt(scene,%s)',showinfo", formatFloat(threshold))
	return []string{
		"-hide_banner",
		"-nostats",
		"-i", video,
		"-an",
		"-vf", filter,
		"-f", "null",
		"-",
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func execCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// tail keeps the last lines of ffmpeg output for error messages.
func tail(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}
