package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"reelscan/internal/editmap"
	"reelscan/internal/logging"
	"reelscan/internal/pipeline"
	"reelscan/internal/services"
	"reelscan/internal/testsupport"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newAnalyzer(t *testing.T, c pipeline.Collaborators, mutate func(*pipeline.Options)) (*pipeline.Analyzer, string) {
	t.Helper()
	scratch := t.TempDir()
	opts := pipeline.Options{
		ScratchRoot: scratch,
		Language:    "en",
		Now:         func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	analyzer, err := pipeline.NewAnalyzer(c, opts)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	return analyzer, scratch
}

func sampleJob() editmap.AnalysisJob {
	return editmap.AnalysisJob{
		EditMapID:    "em-1",
		RawFootageID: "raw-1",
		StorageKey:   testsupport.FootageKey,
		EpisodeID:    "ep-1",
	}
}

func assertScratchEmpty(t *testing.T, scratch string) {
	t.Helper()
	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatalf("read scratch: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected scratch to be cleaned, found %d entries", len(entries))
	}
}

func TestAnalyzeAssemblesEditMap(t *testing.T) {
	c, _, transcriber := testsupport.NewCollaborators()
	analyzer, scratch := newAnalyzer(t, c, nil)

	result, err := analyzer.Analyze(context.Background(), sampleJob())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	assertScratchEmpty(t, scratch)

	if result.EditMapID != "em-1" || result.EpisodeID != "ep-1" {
		t.Fatalf("unexpected identity: %#v", result)
	}
	if result.DurationSeconds != 120.5 {
		t.Fatalf("expected probed duration, got %v", result.DurationSeconds)
	}
	if result.WordCount != 7 || result.SpeakerCount != 2 {
		t.Fatalf("unexpected counts: words=%d speakers=%d", result.WordCount, result.SpeakerCount)
	}
	if len(result.Speakers) != 2 {
		t.Fatalf("expected 2 speaker segments, got %d", len(result.Speakers))
	}
	if len(result.ActiveSpeakers) != 2 {
		t.Fatalf("expected 2 active speaker entries, got %d", len(result.ActiveSpeakers))
	}
	if result.ActiveSpeakers[0].Character != "person_1" {
		t.Fatalf("expected first segment on camera, got %q", result.ActiveSpeakers[0].Character)
	}
	if result.ActiveSpeakers[1].Character != editmap.OffCamera {
		t.Fatalf("expected second segment off camera, got %q", result.ActiveSpeakers[1].Character)
	}

	// One qualifying silence followed by two sentence ends.
	if len(result.CutPoints) != 3 {
		t.Fatalf("expected 3 cuts, got %#v", result.CutPoints)
	}
	if result.CutPoints[0].Type != editmap.CutSilence || result.CutPoints[0].Time != 1.3 {
		t.Fatalf("unexpected first cut: %#v", result.CutPoints[0])
	}

	var reasons []editmap.BRollReason
	for _, b := range result.BRoll {
		reasons = append(reasons, b.Reason)
	}
	if len(reasons) != 2 || reasons[0] != editmap.ReasonSpeakerOffCamera || reasons[1] != editmap.ReasonVisualCue {
		t.Fatalf("unexpected b-roll reasons: %v", reasons)
	}
	if len(result.SceneBoundaries) != 1 || len(result.Warnings) != 0 {
		t.Fatalf("unexpected scenes/warnings: %#v / %v", result.SceneBoundaries, result.Warnings)
	}
	if !result.GeneratedAt.Equal(fixedNow) {
		t.Fatalf("unexpected generated_at %s", result.GeneratedAt)
	}

	jobs := transcriber.JobNames()
	if len(jobs) != 1 || !strings.HasPrefix(jobs[0], "reelscan-em-1-") {
		t.Fatalf("unexpected transcription job names: %v", jobs)
	}
}

func TestAnalyzeFatalStagesCarryTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*pipeline.Collaborators)
		marker error
	}{
		{
			name: "missing object",
			mutate: func(c *pipeline.Collaborators) {
				c.Fetcher = &testsupport.FakeFetcher{}
			},
			marker: services.ErrRetrieval,
		},
		{
			name: "probe failure",
			mutate: func(c *pipeline.Collaborators) {
				c.Prober = testsupport.FakeProber{Err: testsupport.ErrInjected}
			},
			marker: services.ErrExtraction,
		},
		{
			name: "extraction failure",
			mutate: func(c *pipeline.Collaborators) {
				c.Extractor = testsupport.FakeExtractor{Err: testsupport.ErrInjected}
			},
			marker: services.ErrExtraction,
		},
		{
			name: "transcription failure",
			mutate: func(c *pipeline.Collaborators) {
				c.Transcriber = &testsupport.FakeTranscriber{Err: services.Wrap(services.ErrTranscription, "transcription", "job failed", "", nil)}
			},
			marker: services.ErrTranscription,
		},
		{
			name: "scene failure",
			mutate: func(c *pipeline.Collaborators) {
				c.Scenes = testsupport.FakeScenes{Err: testsupport.ErrInjected}
			},
			marker: services.ErrSceneDetection,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _, _ := testsupport.NewCollaborators()
			tc.mutate(&c)
			analyzer, scratch := newAnalyzer(t, c, nil)

			_, err := analyzer.Analyze(context.Background(), sampleJob())
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
			assertScratchEmpty(t, scratch)
		})
	}
}

func TestAnalyzeDegradesOptionalTracks(t *testing.T) {
	c, _, _ := testsupport.NewCollaborators()
	c.Events = testsupport.FakeEvents{Err: errors.New("unpaired silence_start")}
	c.Presence = testsupport.FakePresence{Err: errors.New("tracker offline")}
	analyzer, _ := newAnalyzer(t, c, nil)

	result, err := analyzer.Analyze(context.Background(), sampleJob())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.AudioEvents.Silences) != 0 || len(result.Presence) != 0 {
		t.Fatalf("expected empty degraded tracks, got %#v / %#v", result.AudioEvents, result.Presence)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", result.Warnings)
	}
	for _, entry := range result.ActiveSpeakers {
		if entry.Character != editmap.OffCamera {
			t.Fatalf("expected off camera without presence, got %q", entry.Character)
		}
	}
	for _, cut := range result.CutPoints {
		if cut.Type != editmap.CutSentenceEnd {
			t.Fatalf("expected only sentence cuts without silences, got %#v", cut)
		}
	}
}

func TestAnalyzeOptionalTracksConfiguredFatal(t *testing.T) {
	c, _, _ := testsupport.NewCollaborators()
	c.Events = testsupport.FakeEvents{Err: testsupport.ErrInjected}
	analyzer, scratch := newAnalyzer(t, c, func(o *pipeline.Options) { o.AudioEventsFatal = true })

	_, err := analyzer.Analyze(context.Background(), sampleJob())
	if !errors.Is(err, testsupport.ErrInjected) || !errors.Is(err, services.ErrStage) {
		t.Fatalf("expected wrapped injected failure, got %v", err)
	}
	assertScratchEmpty(t, scratch)
}

func TestAnalyzeCancellationStopsTranscriptionWait(t *testing.T) {
	c, _, _ := testsupport.NewCollaborators()
	c.Transcriber = &testsupport.FakeTranscriber{Block: true}
	analyzer, scratch := newAnalyzer(t, c, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := analyzer.Analyze(ctx, sampleJob())
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("analysis did not stop after cancellation")
	}
	assertScratchEmpty(t, scratch)
}

func TestAnalyzeSceneFailureCancelsTranscription(t *testing.T) {
	c, _, _ := testsupport.NewCollaborators()
	c.Transcriber = &testsupport.FakeTranscriber{Block: true}
	c.Scenes = testsupport.FakeScenes{Err: testsupport.ErrInjected}
	analyzer, _ := newAnalyzer(t, c, nil)

	done := make(chan error, 1)
	go func() {
		_, err := analyzer.Analyze(context.Background(), sampleJob())
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, services.ErrSceneDetection) {
			t.Fatalf("expected scene detection error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scene failure did not cancel the blocked transcription")
	}
}

func TestAnalyzeRejectsInvalidJob(t *testing.T) {
	c, _, _ := testsupport.NewCollaborators()
	analyzer, _ := newAnalyzer(t, c, nil)
	_, err := analyzer.Analyze(context.Background(), editmap.AnalysisJob{EditMapID: "em-1"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStageObserverSeesEveryStage(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[string]int{}
	)
	c, _, _ := testsupport.NewCollaborators()
	analyzer, _ := newAnalyzer(t, c, func(o *pipeline.Options) {
		o.Observer = func(stage string, _ time.Duration, _ error) {
			mu.Lock()
			seen[stage]++
			mu.Unlock()
		}
	})
	if _, err := analyzer.Analyze(context.Background(), sampleJob()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, stage := range []string{
		pipeline.StageRetrieval, pipeline.StageProbe, pipeline.StageExtraction,
		pipeline.StageTranscription, pipeline.StageDiarization, pipeline.StageAudioEvents,
		pipeline.StagePresence, pipeline.StageScenes, pipeline.StageActiveSpeaker,
		pipeline.StageSuggest, pipeline.StageAssembly,
	} {
		if seen[stage] != 1 {
			t.Fatalf("expected stage %s observed once, got %d", stage, seen[stage])
		}
	}
}

func TestNewAnalyzerRequiresCollaborators(t *testing.T) {
	_, err := pipeline.NewAnalyzer(pipeline.Collaborators{}, pipeline.Options{ScratchRoot: t.TempDir()})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "fetcher") || !strings.Contains(err.Error(), "scene detector") {
		t.Fatalf("expected missing collaborators listed, got %v", err)
	}
}

func TestAnalyzeLogsProbeAndSceneSummary(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	c, _, _ := testsupport.NewCollaborators()
	analyzer, _ := newAnalyzer(t, c, func(o *pipeline.Options) { o.Logger = logger })

	if _, err := analyzer.Analyze(context.Background(), sampleJob()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`"video_streams":1`,
		`"audio_streams":1`,
		`"audio_language":"English"`,
		`"boundaries":"12.50"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in log output:\n%s", want, out)
		}
	}
}
