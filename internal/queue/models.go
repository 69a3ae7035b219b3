package queue

import (
	"errors"
	"time"

	"reelscan/internal/editmap"
)

// Status represents the lifecycle of a queued job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusClaimed   Status = "claimed"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// DaemonStopReason is recorded on jobs whose claims are released at shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusClaimed,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus converts a user-supplied status name into a Status.
func ParseStatus(value string) (Status, bool) {
	status := Status(value)
	_, ok := statusSet[status]
	return status, ok
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

var (
	// ErrClaimLost indicates the claim token no longer owns the job, either
	// because the visibility deadline passed and another worker claimed it or
	// because the job was acked or released.
	ErrClaimLost = errors.New("queue claim lost")
	// ErrJobNotFound indicates no job exists with the requested id.
	ErrJobNotFound = errors.New("queue job not found")
)

// Message is one queued AnalysisJob plus its delivery bookkeeping.
type Message struct {
	ID           int64
	Job          editmap.AnalysisJob
	Status       Status
	Attempts     int
	ClaimToken   string
	ClaimedBy    string
	VisibleUntil *time.Time
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Claimed reports whether the message is held by a live claim at now.
func (m Message) Claimed(now time.Time) bool {
	return m.Status == StatusClaimed && m.VisibleUntil != nil && m.VisibleUntil.After(now)
}

// Backlog describes jobs waiting on a worker.
type Backlog struct {
	Pending          int
	OldestPendingAge time.Duration
	ExpiredClaims    int
}

// DatabaseHealth describes the on-disk state of the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TableExists      bool
	TotalJobs        int
	IntegrityCheck   bool
	Error            string
}
