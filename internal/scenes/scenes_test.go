package scenes

import (
	"context"
	"errors"
	"testing"

	"reelscan/internal/editmap"
)

const showinfoTrace = `[Parsed_showinfo_1 @ 0x55] config in time_base: 1/12800, frame_rate: 25/1
[Parsed_showinfo_1 @ 0x55] n:   0 pts:  64000 pts_time:5       duration:    512 fmt:yuv420p
[Parsed_showinfo_1 @ 0x55] n:   1 pts: 160000 pts_time:12.5    duration:    512 fmt:yuv420p
[Parsed_showinfo_1 @ 0x55] n:   2 pts:  38400 pts_time:3       duration:    512 fmt:yuv420p
[Parsed_showinfo_1 @ 0x55] n:   3 pts: 160000 pts_time:12.5    duration:    512 fmt:yuv420p
frame=    4 fps=0.0 q=-0.0 Lsize=N/A time=00:00:12.50
`

func TestParseShowinfoOrdersAndTagsCuts(t *testing.T) {
	got := ParseShowinfo([]byte(showinfoTrace))
	want := []float64{3, 5, 12.5}
	if len(got) != len(want) {
		t.Fatalf("expected %d marks, got %+v", len(want), got)
	}
	for i, ts := range want {
		if got[i].Time != ts || got[i].Type != editmap.SceneCut {
			t.Fatalf("mark %d: want %v/cut, got %+v", i, ts, got[i])
		}
	}
}

type stubTracer struct {
	threshold float64
	err       error
}

func (s *stubTracer) SceneTrace(_ context.Context, _ string, threshold float64) ([]byte, error) {
	s.threshold = threshold
	return []byte(showinfoTrace), s.err
}

func TestDetectorUsesThreshold(t *testing.T) {
	tracer := &stubTracer{}
	det := NewDetector(tracer, 0)
	marks, err := det.Detect(context.Background(), "video.mp4")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if tracer.threshold != DefaultThreshold {
		t.Fatalf("expected default threshold, got %v", tracer.threshold)
	}
	if len(marks) != 3 {
		t.Fatalf("expected 3 marks, got %d", len(marks))
	}
	if String(marks) != "3.00, 5.00, 12.50" {
		t.Fatalf("unexpected summary %q", String(marks))
	}
}

func TestDetectorReturnsTracerError(t *testing.T) {
	det := NewDetector(&stubTracer{err: errors.New("exit status 1")}, 0.4)
	if _, err := det.Detect(context.Background(), "video.mp4"); err == nil {
		t.Fatal("expected error")
	}
}
