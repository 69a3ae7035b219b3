package transcription

import (
	"context"
	"fmt"
	"time"

	"reelscan/internal/services"
)

// PollObserver sees every status poll. Used for metrics.
type PollObserver func(state State)

// WaitForCompletion polls status every interval until the job reaches a
// terminal state, maxWait elapses, or ctx is cancelled. The first poll happens
// immediately. A zero maxWait means no ceiling beyond ctx.
func WaitForCompletion(ctx context.Context, svc Service, name string, interval, maxWait time.Duration, observe PollObserver) (JobStatus, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	var deadline <-chan time.Time
	if maxWait > 0 {
		timer := time.NewTimer(maxWait)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	polls := 0
	for {
		status, err := svc.Status(ctx, name)
		polls++
		if err != nil {
			if ctx.Err() != nil {
				return JobStatus{}, ctx.Err()
			}
			return JobStatus{}, services.Wrap(services.ErrTranscription, "transcription", "poll status", fmt.Sprintf("job %s", name), err)
		}
		if observe != nil {
			observe(status.State)
		}
		if status.State.Terminal() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return JobStatus{}, ctx.Err()
		case <-deadline:
			return JobStatus{}, services.Wrap(
				services.ErrTranscriptionTimeout,
				"transcription",
				"wait",
				fmt.Sprintf("job %s still %s after %s (%d polls)", name, status.State, maxWait, polls),
				nil,
			)
		case <-ticker.C:
		}
	}
}
