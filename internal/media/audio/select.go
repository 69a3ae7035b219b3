package audio

import (
	"strings"

	"reelscan/internal/language"
	"reelscan/internal/media/ffprobe"
)

// Selection describes the audio stream chosen for analysis.
type Selection struct {
	Primary      ffprobe.Stream
	PrimaryIndex int
	Language     string
}

// Found reports whether any audio stream was selected.
func (s Selection) Found() bool {
	return s.PrimaryIndex >= 0
}

// Select returns the stream best suited to speech analysis. Streams in the
// requested language win, then default-flagged streams, then dialogue-friendly
// layouts, then container order. Commentary tracks are avoided when anything
// else exists.
func Select(streams []ffprobe.Stream, lang string) Selection {
	want := strings.TrimSpace(lang)

	best := Selection{PrimaryIndex: -1}
	bestScore := 0.0
	order := 0
	for _, stream := range streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		tagged := language.ExtractFromTags(stream.Tags)
		score := scoreStream(stream, tagged, want) - float64(order)*0.1
		order++
		if best.PrimaryIndex < 0 || score > bestScore {
			best = Selection{Primary: stream, PrimaryIndex: stream.Index, Language: tagged}
			bestScore = score
		}
	}
	return best
}

func scoreStream(stream ffprobe.Stream, lang, want string) float64 {
	score := 0.0
	if language.Matches(lang, want) {
		score += 1000
	}
	if stream.Disposition["default"] == 1 {
		score += 100
	}
	if strings.Contains(normalizeTitle(stream.Tags), "commentary") || stream.Disposition["comment"] == 1 {
		score -= 500
	}
	// Downmixing to mono keeps dialogue from any layout; stereo and 5.1 are
	// the common dialogue-bearing mixes.
	switch channels := stream.Channels; {
	case channels == 2 || channels == 6:
		score += 20
	case channels > 0:
		score += 10
	}
	return score
}

func normalizeTitle(tags map[string]string) string {
	for _, key := range []string{"title", "TITLE", "handler_name", "HANDLER_NAME"} {
		if value, ok := tags[key]; ok {
			return strings.ToLower(strings.TrimSpace(value))
		}
	}
	return ""
}
