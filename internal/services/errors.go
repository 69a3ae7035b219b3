package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRetrieval            = errors.New("retrieval error")
	ErrExtraction           = errors.New("extraction error")
	ErrTranscription        = errors.New("transcription error")
	ErrTranscriptionTimeout = errors.New("transcription timeout")
	ErrSceneDetection       = errors.New("scene detection error")
	ErrStage                = errors.New("stage error")
	ErrExternalTool         = errors.New("external tool error")
	ErrValidation           = errors.New("validation error")
	ErrConfiguration        = errors.New("configuration error")
	ErrNotFound             = errors.New("not found")
	ErrTimeout              = errors.New("timeout")
	ErrTransient            = errors.New("transient failure")
)

// markers lists every sentinel in classification priority order.
var markers = []error{
	ErrTranscriptionTimeout,
	ErrRetrieval,
	ErrExtraction,
	ErrTranscription,
	ErrSceneDetection,
	ErrStage,
	ErrConfiguration,
	ErrValidation,
	ErrNotFound,
	ErrExternalTool,
	ErrTimeout,
	ErrTransient,
}

// ErrorKind names the taxonomy bucket of a wrapped error.
type ErrorKind string

const (
	KindRetrieval            ErrorKind = "retrieval"
	KindExtraction           ErrorKind = "extraction"
	KindTranscription        ErrorKind = "transcription"
	KindTranscriptionTimeout ErrorKind = "transcription_timeout"
	KindSceneDetection       ErrorKind = "scene_detection"
	KindStage                ErrorKind = "stage"
	KindExternalTool         ErrorKind = "external_tool"
	KindValidation           ErrorKind = "validation"
	KindConfiguration        ErrorKind = "configuration"
	KindNotFound             ErrorKind = "not_found"
	KindTimeout              ErrorKind = "timeout"
	KindTransient            ErrorKind = "transient"
	KindUnknown              ErrorKind = "unknown"
)

var kindByMarker = map[error]ErrorKind{
	ErrRetrieval:            KindRetrieval,
	ErrExtraction:           KindExtraction,
	ErrTranscription:        KindTranscription,
	ErrTranscriptionTimeout: KindTranscriptionTimeout,
	ErrSceneDetection:       KindSceneDetection,
	ErrStage:                KindStage,
	ErrExternalTool:         KindExternalTool,
	ErrValidation:           KindValidation,
	ErrConfiguration:        KindConfiguration,
	ErrNotFound:             KindNotFound,
	ErrTimeout:              KindTimeout,
	ErrTransient:            KindTransient,
}

var hintByKind = map[ErrorKind]string{
	KindRetrieval:            "verify the storage key exists and the object store is reachable",
	KindExtraction:           "check ffmpeg is installed and the footage has an audio stream",
	KindTranscription:        "inspect the speech-to-text job in the provider console",
	KindTranscriptionTimeout: "raise transcription.max_wait_seconds or check the provider backlog",
	KindSceneDetection:       "check ffmpeg scene filter support for this codec",
	KindStage:                "check logs for the degraded stage",
	KindConfiguration:        "review the configuration file",
	KindExternalTool:         "confirm external binaries are installed and on PATH",
}

// StageError is the structured form produced by Wrap.
type StageError struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Cause     error
}

func (e *StageError) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	marker := e.Marker
	if marker == nil {
		marker = ErrTransient
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", marker, detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", marker, detail)
}

func (e *StageError) Unwrap() []error {
	out := []error{e.Marker}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// Wrap builds an error that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &StageError{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Cause:     err,
	}
}

// ErrorDetails is the flattened view of a failure used for logs and status
// messages.
type ErrorDetails struct {
	Kind      ErrorKind
	Stage     string
	Operation string
	Message   string
	Hint      string
	Cause     error
}

// Details unpacks err. Message is always the full Error() text so status
// records carry the original message.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{Kind: KindUnknown}
	}
	details := ErrorDetails{Kind: Kind(err), Message: strings.TrimSpace(err.Error())}
	var se *StageError
	if errors.As(err, &se) {
		details.Stage = se.Stage
		details.Operation = se.Operation
		details.Cause = se.Cause
	}
	details.Hint = hintByKind[details.Kind]
	return details
}

// Kind returns the first taxonomy bucket err belongs to.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, marker := range markers {
		if errors.Is(err, marker) {
			return kindByMarker[marker]
		}
	}
	return KindUnknown
}

// IsFatal reports whether a stage failure must fail the whole job. Only the
// best-effort ErrStage bucket is recoverable.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrStage)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage != "" {
		parts = append(parts, stage)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
