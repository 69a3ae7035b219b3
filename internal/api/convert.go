package api

import (
	"time"

	"reelscan/internal/deps"
	"reelscan/internal/editmap"
	"reelscan/internal/queue"
	"reelscan/internal/workflow"
)

// FromQueueMessage converts a queue record to its API representation.
func FromQueueMessage(msg *queue.Message) QueueItem {
	if msg == nil {
		return QueueItem{}
	}
	dto := QueueItem{
		ID:           msg.ID,
		EditMapID:    msg.Job.EditMapID,
		RawFootageID: msg.Job.RawFootageID,
		StorageKey:   msg.Job.StorageKey,
		EpisodeID:    msg.Job.EpisodeID,
		Status:       string(msg.Status),
		Attempts:     msg.Attempts,
		ClaimedBy:    msg.ClaimedBy,
		ErrorMessage: msg.LastError,
		CreatedAt:    formatTime(msg.CreatedAt),
		UpdatedAt:    formatTime(msg.UpdatedAt),
	}
	if msg.VisibleUntil != nil {
		dto.VisibleUntil = formatTime(*msg.VisibleUntil)
	}
	return dto
}

// FromQueueMessages converts a slice of queue records into API DTOs.
func FromQueueMessages(messages []*queue.Message) []QueueItem {
	if len(messages) == 0 {
		return nil
	}
	out := make([]QueueItem, 0, len(messages))
	for _, msg := range messages {
		out = append(out, FromQueueMessage(msg))
	}
	return out
}

// MergeQueueStats converts status-keyed counts to a string-keyed map with
// every known status present.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = stats[status]
	}
	return out
}

// FromStatusSummary converts workflow status into its API form.
func FromStatusSummary(summary workflow.StatusSummary, stats map[queue.Status]int) WorkflowStatus {
	return WorkflowStatus{
		Running:    summary.Running,
		Owner:      summary.Owner,
		Workers:    summary.Workers,
		InFlight:   summary.InFlight,
		Completed:  summary.Completed,
		Failed:     summary.Failed,
		Abandoned:  summary.Abandoned,
		QueueStats: MergeQueueStats(stats),
		LastError:  summary.LastError,
		LastJob:    summary.LastJob,
	}
}

// FromDependencies converts dependency check results.
func FromDependencies(results []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(results))
	for i, dep := range results {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Path:        dep.Path,
			Version:     dep.Version,
			Detail:      dep.Detail,
		}
	}
	return out
}

// FromStatusUpdate converts a stored edit map status.
func FromStatusUpdate(editMapID string, update editmap.StatusUpdate) EditMapStatus {
	dto := EditMapStatus{
		EditMapID: editMapID,
		Status:    string(update.ProcessingStatus),
		Error:     update.ErrorMessage,
	}
	if update.ProcessingStartedAt != nil {
		dto.StartedAt = formatTime(*update.ProcessingStartedAt)
	}
	if update.ProcessingCompletedAt != nil {
		dto.CompletedAt = formatTime(*update.ProcessingCompletedAt)
	}
	return dto
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
