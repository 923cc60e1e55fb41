package store

import "time"

// Run outcomes.
const (
	OutcomeUpToDate  = "up-to-date"
	OutcomeCancelled = "cancelled"
	OutcomeUpgraded  = "upgraded"
	OutcomePartial   = "partial"
	OutcomeFailed    = "failed"
)

// Per-package event statuses.
const (
	StatusUpgraded = "upgraded"
	StatusFailed   = "failed"
)

// Run is one recorded pipeline run.
type Run struct {
	ID        int64
	StartedAt time.Time
	Trigger   string // "manual" or "scheduled"
	Outcome   string
	Events    []RunEvent
}

// RunEvent is one per-package result within a run.
type RunEvent struct {
	RunID   int64
	Package string
	Status  string
	Error   string
}
