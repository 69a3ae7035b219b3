package api

import "reelscan/internal/editmap"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queued analysis job in a transport-friendly format.
type QueueItem struct {
	ID           int64  `json:"id"`
	EditMapID    string `json:"editMapId"`
	RawFootageID string `json:"rawFootageId,omitempty"`
	StorageKey   string `json:"storageKey"`
	EpisodeID    string `json:"episodeId,omitempty"`
	Status       string `json:"status"`
	Attempts     int    `json:"attempts"`
	ClaimedBy    string `json:"claimedBy,omitempty"`
	VisibleUntil string `json:"visibleUntil,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running    bool           `json:"running"`
	Owner      string         `json:"owner"`
	Workers    int            `json:"workers"`
	InFlight   int            `json:"inFlight"`
	Completed  int64          `json:"completed"`
	Failed     int64          `json:"failed"`
	Abandoned  int64          `json:"abandoned"`
	QueueStats map[string]int `json:"queueStats"`
	LastError  string         `json:"lastError,omitempty"`
	LastJob    string         `json:"lastJob,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queueDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// QueueListResponse wraps a collection of queue items for API responses.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse wraps a single queue item.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}

// EditMapStatus is the processing status recorded for one edit map.
type EditMapStatus struct {
	EditMapID   string `json:"editMapId"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"startedAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
}

// EditMapResponse pairs an edit map's status with its latest result, which
// is absent until a run completes.
type EditMapResponse struct {
	Status  EditMapStatus    `json:"status"`
	EditMap *editmap.EditMap `json:"editMap,omitempty"`
}
