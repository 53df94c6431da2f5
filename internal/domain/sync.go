package domain

import "time"

// SyncState is the persisted cursor for one table. LastUpdatedAt is an
// opaque ISO-8601 UTC timestamp string; empty means no prior sync.
type SyncState struct {
	TableID       string    `db:"table_id"`
	LastUpdatedAt string    `db:"last_updated_at"`
	LastSyncedAt  time.Time `db:"last_synced_at"`
	TotalSynced   int64     `db:"total_synced"`
}

// SyncStats holds statistics about one sync sweep.
type SyncStats struct {
	TableID     string
	Table       string
	Records     int64
	Pages       int
	Checkpoints int
	Duration    time.Duration
}

// CheckpointEvent is published after each durable checkpoint.
type CheckpointEvent struct {
	TableID   string    `json:"table_id"`
	Table     string    `json:"table"`
	Cursor    string    `json:"cursor"`
	Records   int64     `json:"records"`
	Timestamp time.Time `json:"timestamp"`
}
