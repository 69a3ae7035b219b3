package logging

import (
	"log/slog"
	"time"

	"reelscan/internal/services"
)

// Attr is the attribute type every helper here returns.
type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// EventType classifies a log line.
func EventType(value string) Attr { return slog.String(FieldEventType, value) }

// Hint is the operator's next step.
func Hint(value string) Attr { return slog.String(FieldErrorHint, value) }

// Impact is what the failure means for the edit map or the queue.
func Impact(value string) Attr { return slog.String(FieldImpact, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Failure expands err through the services taxonomy: the error itself, its
// kind, and the stage and hint when the error carries them.
func Failure(err error) []Attr {
	details := services.Details(err)
	attrs := []Attr{Error(err), slog.String(FieldErrorKind, string(details.Kind))}
	if details.Stage != "" {
		attrs = append(attrs, slog.String(FieldStage, details.Stage))
	}
	if details.Hint != "" {
		attrs = append(attrs, Hint(details.Hint))
	}
	return attrs
}

// Args converts attributes into the variadic form slog methods accept.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with a component. A nil logger discards.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Attributes the caller supplies win over the defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	var hasEvent, hasHint, hasImpact bool
	for _, a := range attrs {
		switch a.Key {
		case FieldEventType:
			hasEvent = true
		case FieldErrorHint:
			hasHint = true
		case FieldImpact:
			hasImpact = true
		}
	}
	if !hasEvent {
		attrs = append(attrs, EventType(eventType))
	}
	if !hasHint {
		attrs = append(attrs, Hint("check logs for details"))
	}
	if !hasImpact {
		attrs = append(attrs, Impact("edit map completed with partial coverage"))
	}
	logger.Warn(msg, Args(attrs...)...)
}
