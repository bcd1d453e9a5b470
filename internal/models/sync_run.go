package models

import "time"

// SyncStatus is the terminal state of a sync run.
type SyncStatus string

const (
	SyncSucceeded SyncStatus = "succeeded"
	SyncFailed    SyncStatus = "failed"
)

// SyncRun records the outcome of one sync or reconcile call.
type SyncRun struct {
	Base
	UserID     string     `gorm:"not null;index" json:"user_id"`
	Trigger    string     `gorm:"size:16;not null" json:"trigger"`
	Status     SyncStatus `gorm:"size:16;not null" json:"status"`
	FailedIn   string     `gorm:"size:16" json:"failed_in,omitempty"`
	Fetched    int        `json:"fetched"`
	Imported   int        `json:"imported"`
	New        int        `json:"new"`
	Skipped    int        `json:"skipped"`
	ErrorCode  string     `json:"error_code,omitempty"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt time.Time  `gorm:"not null" json:"finished_at"`
}
