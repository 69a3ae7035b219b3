package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"reelscan/internal/editmap"
	"reelscan/internal/media/ffprobe"
	"reelscan/internal/pipeline"
	"reelscan/internal/storage"
)

// FakeFetcher serves objects from memory. Unknown keys fail with
// storage.ErrObjectNotFound.
type FakeFetcher struct {
	mu      sync.Mutex
	Objects map[string][]byte
	// Fetched records every destination path written.
	Fetched []string
}

// Fetch implements pipeline.Fetcher.
func (f *FakeFetcher) Fetch(_ context.Context, key, destPath string) (int64, error) {
	f.mu.Lock()
	data, ok := f.Objects[key]
	f.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return 0, err
	}
	f.mu.Lock()
	f.Fetched = append(f.Fetched, destPath)
	f.mu.Unlock()
	return int64(len(data)), nil
}

// FakeProber reports a fixed container with one English audio stream.
type FakeProber struct {
	Duration string
	Err      error
}

// Inspect implements pipeline.Prober.
func (p FakeProber) Inspect(context.Context, string) (ffprobe.Result, error) {
	if p.Err != nil {
		return ffprobe.Result{}, p.Err
	}
	duration := p.Duration
	if duration == "" {
		duration = "120.5"
	}
	return ffprobe.Result{
		Streams: []ffprobe.Stream{
			{Index: 0, CodecType: "video", CodecName: "h264"},
			{Index: 1, CodecType: "audio", CodecName: "aac", Channels: 2, Tags: map[string]string{"language": "eng"}},
		},
		Format: ffprobe.Format{Duration: duration},
	}, nil
}

// FakeExtractor writes a placeholder audio file.
type FakeExtractor struct {
	Err error
}

// ExtractAudio implements pipeline.AudioExtractor.
func (e FakeExtractor) ExtractAudio(_ context.Context, source string, _ int, dest string) error {
	if e.Err != nil {
		return e.Err
	}
	if _, err := os.Stat(source); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("RIFF"), 0o644)
}

// FakeTranscriber returns Tokens after checking the audio file exists. With
// Block set it waits for ctx cancellation instead.
type FakeTranscriber struct {
	Tokens []editmap.Token
	Err    error
	Block  bool

	mu   sync.Mutex
	Jobs []string
}

// Transcribe implements pipeline.Transcriber.
func (t *FakeTranscriber) Transcribe(ctx context.Context, audioPath, jobName string) ([]editmap.Token, error) {
	t.mu.Lock()
	t.Jobs = append(t.Jobs, jobName)
	t.mu.Unlock()
	if _, err := os.Stat(audioPath); err != nil {
		return nil, err
	}
	if t.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if t.Err != nil {
		return nil, t.Err
	}
	return append([]editmap.Token(nil), t.Tokens...), nil
}

// JobNames returns the transcription job names seen so far.
func (t *FakeTranscriber) JobNames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.Jobs...)
}

// FakeEvents returns fixed audio events or an error.
type FakeEvents struct {
	Events editmap.AudioEvents
	Err    error
}

// Detect implements pipeline.EventDetector.
func (e FakeEvents) Detect(context.Context, string) (editmap.AudioEvents, error) {
	return e.Events, e.Err
}

// FakeScenes returns fixed scene marks or an error.
type FakeScenes struct {
	Marks []editmap.SceneBoundaryMark
	Err   error
}

// Detect implements pipeline.SceneDetector.
func (s FakeScenes) Detect(ctx context.Context, _ string) ([]editmap.SceneBoundaryMark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Marks, s.Err
}

// FakePresence returns fixed presence intervals or an error.
type FakePresence struct {
	Intervals []editmap.PresenceInterval
	Err       error
}

// Track implements presence.Tracker.
func (p FakePresence) Track(context.Context, string) ([]editmap.PresenceInterval, error) {
	return p.Intervals, p.Err
}

// SampleTokens is a short two-speaker exchange ending in sentence-final
// punctuation, with a visual cue phrase in the second sentence.
func SampleTokens() []editmap.Token {
	return []editmap.Token{
		{Word: "Welcome", StartTime: 0.5, EndTime: 0.9, Confidence: 0.98, Speaker: "speaker_0"},
		{Word: "back", StartTime: 0.9, EndTime: 1.2, Confidence: 0.97, Speaker: "speaker_0"},
		{Word: ".", StartTime: 1.2, EndTime: 1.2, Confidence: 1, Speaker: "speaker_0"},
		{Word: "Look", StartTime: 70.0, EndTime: 70.3, Confidence: 0.95, Speaker: "speaker_1"},
		{Word: "at", StartTime: 70.3, EndTime: 70.4, Confidence: 0.95, Speaker: "speaker_1"},
		{Word: "this", StartTime: 70.4, EndTime: 70.8, Confidence: 0.95, Speaker: "speaker_1"},
		{Word: "!", StartTime: 70.8, EndTime: 70.8, Confidence: 1, Speaker: "speaker_1"},
	}
}

// FootageKey is the storage key NewCollaborators serves.
const FootageKey = "raw/episode-1.mp4"

// NewCollaborators returns fakes for every pipeline collaborator, serving
// FootageKey and transcribing SampleTokens.
func NewCollaborators() (pipeline.Collaborators, *FakeFetcher, *FakeTranscriber) {
	fetcher := &FakeFetcher{Objects: map[string][]byte{FootageKey: []byte("footage")}}
	transcriber := &FakeTranscriber{Tokens: SampleTokens()}
	return pipeline.Collaborators{
		Fetcher:     fetcher,
		Prober:      FakeProber{},
		Extractor:   FakeExtractor{},
		Transcriber: transcriber,
		Events: FakeEvents{Events: editmap.AudioEvents{
			Silences: []editmap.Silence{{Start: 1.3, End: 2.4}, {Start: 30, End: 30.2}},
		}},
		Presence: FakePresence{Intervals: []editmap.PresenceInterval{
			{PersonID: "person_1", StartTime: 0, EndTime: 60, Confidence: 0.5},
		}},
		Scenes: FakeScenes{Marks: []editmap.SceneBoundaryMark{{Time: 12.5, Type: editmap.SceneCut}}},
	}, fetcher, transcriber
}

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("injected failure")
