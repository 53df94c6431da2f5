package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"tablesync/internal/domain"
)

// Source is the remote tabular API for one table.
type Source interface {
	TableID() string
	FetchMetadata(ctx context.Context) (*domain.TableMetadata, error)
	FetchRecords(ctx context.Context, q domain.RecordQuery) ([]domain.Record, error)
}

// Destination is the downstream sink. Upsert is keyed by the record's
// id column and must be idempotent.
type Destination interface {
	EnsureTable(ctx context.Context, schema domain.TableSchema) error
	Upsert(ctx context.Context, table string, rec domain.Record) error
}

// SyncStateStore persists the resumable cursor between invocations.
type SyncStateStore interface {
	Get(ctx context.Context, tableID string) (*domain.SyncState, error)
	Checkpoint(ctx context.Context, state *domain.SyncState) error
}

// Publisher notifies downstream consumers after each durable checkpoint.
type Publisher interface {
	PublishCheckpoint(ctx context.Context, event *domain.CheckpointEvent) error
	Close() error
}
