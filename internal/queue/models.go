package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a processed clip.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusUploaded   Status = "uploaded"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusUploaded,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// validTransitions encodes the monotonic forward state machine:
// pending -> processing -> uploaded|failed. Terminal states never move.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusUploaded, StatusFailed},
}

// Clip represents a processed-clip row persisted in SQLite. One row exists
// per source clip ever seen; rows are never deleted by the dispatcher.
type Clip struct {
	ID            int64
	ClipID        string
	ClipURL       string
	Title         string
	Broadcaster   string
	TikTokVideoID string
	TikTokURL     string
	Status        Status
	ErrorMessage  string
	CreatedAt     time.Time
	ProcessedAt   time.Time
	UploadedAt    *time.Time
}

// JobRun is an audit record of one dispatcher run. Observability only.
type JobRun struct {
	ID           int64
	JobName      string
	RunID        string
	LastRun      time.Time
	LastError    string
	SuccessCount int
	ErrorCount   int
	CreatedAt    time.Time
}

// HealthSummary describes aggregated clip counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Uploaded   int
	Failed     int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusUploaded || s == StatusFailed
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
