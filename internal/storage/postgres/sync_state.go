package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"tablesync/internal/domain"
)

type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

func (s *SyncStateStore) Get(ctx context.Context, tableID string) (*domain.SyncState, error) {
	var state domain.SyncState
	query := `
		SELECT table_id, last_updated_at, last_synced_at, total_synced
		FROM sync_state
		WHERE table_id = $1`

	err := s.db.GetContext(ctx, &state, query, tableID)
	if errors.Is(err, sql.ErrNoRows) {
		// Empty state for a never-synced table
		return &domain.SyncState{TableID: tableID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *SyncStateStore) Checkpoint(ctx context.Context, state *domain.SyncState) error {
	query := `
		INSERT INTO sync_state (table_id, last_updated_at, last_synced_at, total_synced)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (table_id) DO UPDATE SET
			last_updated_at = EXCLUDED.last_updated_at,
			last_synced_at = EXCLUDED.last_synced_at,
			total_synced = EXCLUDED.total_synced`

	_, err := s.db.ExecContext(ctx, query,
		state.TableID,
		state.LastUpdatedAt,
		state.LastSyncedAt,
		state.TotalSynced,
	)
	return err
}
