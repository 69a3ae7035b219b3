package editmap

import (
	"encoding/json"
	"time"
)

// OffCamera is the character label for speech no presence interval contains.
const OffCamera = "off_camera"

// DefaultSpeaker labels segments built from tokens that carry no speaker.
const DefaultSpeaker = "speaker_0"

// AnalysisJob identifies one unit of work.
type AnalysisJob struct {
	EditMapID    string `json:"edit_map_id"`
	RawFootageID string `json:"raw_footage_id"`
	StorageKey   string `json:"storage_key"`
	EpisodeID    string `json:"episode_id"`
}

// Validate reports the first missing required field.
func (j AnalysisJob) Validate() error {
	switch {
	case j.EditMapID == "":
		return errMissing("edit_map_id")
	case j.StorageKey == "":
		return errMissing("storage_key")
	}
	return nil
}

// Token is one time-coded transcript word.
type Token struct {
	Word       string  `json:"word"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
}

// SpeakerSegment is a contiguous run of tokens from one speaker.
type SpeakerSegment struct {
	Speaker   string   `json:"speaker"`
	StartTime float64  `json:"start_time"`
	EndTime   float64  `json:"end_time"`
	Words     []string `json:"words"`
}

// Text joins the segment's words with single spaces.
func (s SpeakerSegment) Text() string {
	return joinWords(s.Words)
}

// Silence is a closed interval of detected silence, in seconds.
type Silence struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the silence length in seconds.
func (s Silence) Duration() float64 { return s.End - s.Start }

// AudioEvents groups detector output. Laughter, Music and Applause are nil
// until a classifier is configured; nil means "not computed", not "absent".
type AudioEvents struct {
	Silences []Silence  `json:"silences"`
	Laughter []Interval `json:"laughter"`
	Music    []Interval `json:"music"`
	Applause []Interval `json:"applause"`
}

// MarshalJSON writes every family as a list. Unclassified families encode as
// empty placeholder lists; in memory they stay nil ("not computed").
func (e AudioEvents) MarshalJSON() ([]byte, error) {
	type wire AudioEvents
	return json.Marshal(wire{
		Silences: nonNil(e.Silences),
		Laughter: nonNil(e.Laughter),
		Music:    nonNil(e.Music),
		Applause: nonNil(e.Applause),
	})
}

// Interval is a generic classified span.
type Interval struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
}

// BoundingBox is one sample of a tracked identity's on-screen location.
type BoundingBox struct {
	Time   float64 `json:"time"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PresenceInterval records when a visual identity is on screen.
type PresenceInterval struct {
	PersonID      string        `json:"person_id"`
	StartTime     float64       `json:"start_time"`
	EndTime       float64       `json:"end_time"`
	Confidence    float64       `json:"confidence"`
	BoundingBoxes []BoundingBox `json:"bounding_boxes"`
}

// ActiveSpeakerEntry attributes a speech segment to an on-screen character.
type ActiveSpeakerEntry struct {
	Speaker   string  `json:"speaker"`
	Character string  `json:"character"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
}

// SceneBoundaryMark is a visual cut point.
type SceneBoundaryMark struct {
	Time float64 `json:"time"`
	Type string  `json:"type"`
}

// SceneCut is the only boundary type the scene detector emits.
const SceneCut = "cut"

// CutType names the rule that produced a Cut.
type CutType string

const (
	CutSilence     CutType = "silence"
	CutSentenceEnd CutType = "sentence_end"
)

// Cut is a candidate edit point.
type Cut struct {
	Time       float64 `json:"time"`
	Type       CutType `json:"type"`
	Confidence float64 `json:"confidence"`
}

// BRollReason explains why a B-roll opportunity was flagged.
type BRollReason string

const (
	ReasonSpeakerOffCamera BRollReason = "speaker_off_camera"
	ReasonVisualCue        BRollReason = "visual_cue"
)

const (
	ContentReactionShot   = "reaction_shot"
	ContentProductCloseup = "product_closeup"
)

// BRollOpportunity flags a range suited to cutaway footage.
type BRollOpportunity struct {
	StartTime        float64     `json:"start_time"`
	EndTime          float64     `json:"end_time"`
	Reason           BRollReason `json:"reason"`
	SuggestedContent string      `json:"suggested_content"`
}

// EditMap is the job's sole durable output.
type EditMap struct {
	EditMapID       string               `json:"edit_map_id"`
	RawFootageID    string               `json:"raw_footage_id,omitempty"`
	EpisodeID       string               `json:"episode_id,omitempty"`
	DurationSeconds float64              `json:"duration_seconds"`
	Transcript      []Token              `json:"transcript"`
	Speakers        []SpeakerSegment     `json:"speakers"`
	AudioEvents     AudioEvents          `json:"audio_events"`
	Presence        []PresenceInterval   `json:"character_presence"`
	ActiveSpeakers  []ActiveSpeakerEntry `json:"active_speaker"`
	SceneBoundaries []SceneBoundaryMark  `json:"scene_boundaries"`
	CutPoints       []Cut                `json:"suggested_cuts"`
	BRoll           []BRollOpportunity   `json:"broll_opportunities"`
	SpeakerCount    int                  `json:"speaker_count"`
	WordCount       int                  `json:"word_count"`
	Warnings        []string             `json:"warnings,omitempty"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// Status is a job's processing state as reported to the metadata store.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// StatusUpdate is the status payload keyed by edit map id.
type StatusUpdate struct {
	ProcessingStatus      Status     `json:"processing_status"`
	ErrorMessage          string     `json:"error_message,omitempty"`
	ProcessingStartedAt   *time.Time `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time `json:"processing_completed_at,omitempty"`
}
