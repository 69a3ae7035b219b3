package transcription

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"reelscan/internal/editmap"
)

// Transcript is the remote result payload: an ordered item list where
// punctuation arrives as its own untimed item.
type Transcript struct {
	Results struct {
		Items []TranscriptItem `json:"items"`
	} `json:"results"`
}

// TranscriptItem is one pronunciation or punctuation item.
type TranscriptItem struct {
	Type         string        `json:"type"`
	StartTime    string        `json:"start_time,omitempty"`
	EndTime      string        `json:"end_time,omitempty"`
	SpeakerLabel string        `json:"speaker_label,omitempty"`
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative is one recognition hypothesis.
type Alternative struct {
	Content    string `json:"content"`
	Confidence string `json:"confidence"`
}

const (
	itemPronunciation = "pronunciation"
	itemPunctuation   = "punctuation"
)

// Tokens converts items to tokens. Punctuation items take the preceding
// token's end time as both bounds and inherit its speaker, which keeps the
// stream time-monotonic.
func (t Transcript) Tokens() ([]editmap.Token, error) {
	tokens := make([]editmap.Token, 0, len(t.Results.Items))
	for i, item := range t.Results.Items {
		if len(item.Alternatives) == 0 {
			continue
		}
		best := item.Alternatives[0]
		word := strings.TrimSpace(best.Content)
		if word == "" {
			continue
		}
		confidence, _ := strconv.ParseFloat(strings.TrimSpace(best.Confidence), 64)

		switch item.Type {
		case itemPunctuation:
			tok := editmap.Token{Word: word, Confidence: confidence}
			if n := len(tokens); n > 0 {
				tok.StartTime = tokens[n-1].EndTime
				tok.EndTime = tokens[n-1].EndTime
				tok.Speaker = tokens[n-1].Speaker
			}
			if item.SpeakerLabel != "" {
				tok.Speaker = item.SpeakerLabel
			}
			tokens = append(tokens, tok)
		case itemPronunciation, "":
			start, err := parseSeconds(item.StartTime)
			if err != nil {
				return nil, fmt.Errorf("item %d start_time: %w", i, err)
			}
			end, err := parseSeconds(item.EndTime)
			if err != nil {
				return nil, fmt.Errorf("item %d end_time: %w", i, err)
			}
			if end < start {
				return nil, fmt.Errorf("item %d ends before it starts (%v < %v)", i, end, start)
			}
			tokens = append(tokens, editmap.Token{
				Word:       word,
				StartTime:  start,
				EndTime:    end,
				Confidence: confidence,
				Speaker:    item.SpeakerLabel,
			})
		default:
			return nil, fmt.Errorf("item %d: unknown type %q", i, item.Type)
		}
	}
	return tokens, nil
}

var errMissingTime = errors.New("missing timestamp")

func parseSeconds(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errMissingTime
	}
	return strconv.ParseFloat(value, 64)
}
