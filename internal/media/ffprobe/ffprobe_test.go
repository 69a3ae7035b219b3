package ffprobe

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{{Duration: "10.5"}, {Duration: "bad"}, {Duration: "12.25"}},
		Format:  Format{Duration: "N/A", Size: "-1"},
	}
	if got := result.DurationSeconds(); got != 12.25 {
		t.Fatalf("expected stream fallback 12.25, got %v", got)
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}

func TestInspectDecodesRunnerOutput(t *testing.T) {
	var gotArgs []string
	prober := New("")
	prober.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "ffprobe" {
			t.Fatalf("expected default binary, got %q", name)
		}
		gotArgs = args
		return []byte(`{"streams":[{"index":1,"codec_type":"audio","channels":2,"tags":{"language":"eng"}}],"format":{"duration":"61.0"}}`), nil
	})

	result, err := prober.Inspect(context.Background(), "/tmp/in.mp4")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if result.DurationSeconds() != 61 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
	if result.Streams[0].Tags["language"] != "eng" {
		t.Fatalf("expected tags to decode, got %+v", result.Streams[0])
	}
	if gotArgs[len(gotArgs)-1] != "/tmp/in.mp4" || !slices.Contains(gotArgs, "-show_streams") {
		t.Fatalf("unexpected args %v", gotArgs)
	}
}

func TestInspectErrors(t *testing.T) {
	prober := New("ffprobe")
	if _, err := prober.Inspect(context.Background(), "  "); err == nil {
		t.Fatal("expected empty path error")
	}

	prober.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})
	if _, err := prober.Inspect(context.Background(), "/missing"); err == nil {
		t.Fatal("expected runner error")
	}

	prober.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("not json"), nil
	})
	if _, err := prober.Inspect(context.Background(), "/bad"); err == nil {
		t.Fatal("expected parse error")
	}
}
