package transcription

import (
	"context"

	"reelscan/internal/editmap"
)

// State is a transcription job's lifecycle state.
type State string

const (
	StateQueued     State = "QUEUED"
	StateInProgress State = "IN_PROGRESS"
	StateCompleted  State = "COMPLETED"
	StateFailed     State = "FAILED"
)

// Terminal reports whether polling can stop.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// JobRequest describes one transcription job.
type JobRequest struct {
	Name string `json:"name"`
	// MediaURI references the staged audio for remote services.
	MediaURI string `json:"media_uri,omitempty"`
	// AudioPath is the local audio file for in-process services.
	AudioPath   string `json:"-"`
	Language    string `json:"language,omitempty"`
	Diarization bool   `json:"diarization"`
	MaxSpeakers int    `json:"max_speakers,omitempty"`
}

// JobStatus is the result of a status poll.
type JobStatus struct {
	State         State  `json:"state"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// Service is the speech-to-text collaborator.
type Service interface {
	Start(ctx context.Context, req JobRequest) error
	Status(ctx context.Context, name string) (JobStatus, error)
	Result(ctx context.Context, name string) ([]editmap.Token, error)
}

// Canceler is implemented by services that can abandon a started job.
type Canceler interface {
	Cancel(ctx context.Context, name string) error
}

// Stager uploads local audio where the service can read it and returns its URI.
type Stager interface {
	StageAudio(ctx context.Context, localPath, name string) (string, error)
}
