package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tablesync/internal/config"
	"tablesync/internal/domain"
	"tablesync/internal/schema"
)

// SyncEngine drives one incremental sweep of a single table: cursor
// initialization, schema resolution, paginated record retrieval,
// transformation, emission, and checkpoint scheduling.
type SyncEngine struct {
	source      Source
	destination Destination
	syncState   SyncStateStore
	publisher   Publisher
	logger      *slog.Logger
	config      config.SyncConfig
}

func NewSyncEngine(
	source Source,
	destination Destination,
	syncState SyncStateStore,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncEngine {
	return &SyncEngine{
		source:      source,
		destination: destination,
		syncState:   syncState,
		publisher:   publisher,
		logger:      logger.With("table_id", source.TableID()),
		config:      cfg,
	}
}

// Sync runs one full sweep. The filter cursor is fixed for the whole
// sweep; only the persisted state advances, so records updated during
// the sweep are picked up next time instead of narrowing the current
// window. Any fatal error aborts without touching the last successful
// checkpoint.
func (e *SyncEngine) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()
	tableID := e.source.TableID()

	customFilters, err := parseCustomFilters(e.config.CustomFilterJSON)
	if err != nil {
		return nil, e.fail(err)
	}

	state, err := e.syncState.Get(ctx, tableID)
	if err != nil {
		return nil, e.fail(fmt.Errorf("load sync state: %w", err))
	}

	meta, err := e.source.FetchMetadata(ctx)
	if err != nil {
		return nil, e.fail(domain.Errorf(domain.KindDiscovery, "resolve schema: %w", err))
	}

	tableSchema, mapping := schema.Resolve(tableID, *meta)
	if err := e.destination.EnsureTable(ctx, tableSchema); err != nil {
		return nil, e.fail(fmt.Errorf("ensure destination table: %w", err))
	}

	cursor := state.LastUpdatedAt
	if cursor == "" {
		cursor = e.config.SyncFromDate
	}

	// Applied exactly once per sweep. The overlap re-fetches a small
	// tail of already-seen records, which upsert-by-id makes harmless.
	filterCursor, err := adjustForOverlap(cursor, e.config.CursorOverlap)
	if err != nil {
		return nil, e.fail(err)
	}

	e.logger.Info("starting sync",
		"table", tableSchema.Table,
		"cursor", filterCursor,
		"page_size", e.config.PageSize,
	)

	stats := &domain.SyncStats{TableID: tableID, Table: tableSchema.Table}
	latest := filterCursor
	offset := 0

	for {
		query := domain.RecordQuery{
			Limit:   e.config.PageSize,
			Offset:  offset,
			Filters: buildFilters(filterCursor, customFilters),
			Sort:    []domain.SortOption{{SortBy: schema.FieldUpdatedAt, SortDir: "asc"}},
		}

		records, err := e.source.FetchRecords(ctx, query)
		if err != nil {
			return nil, e.fail(fmt.Errorf("fetch page at offset %d: %w", offset, err))
		}
		if len(records) == 0 {
			break
		}

		for i := range records {
			row := schema.TransformRecord(records[i], mapping)
			if err := e.destination.Upsert(ctx, tableSchema.Table, row); err != nil {
				return nil, e.fail(fmt.Errorf("upsert record: %w", err))
			}

			if ts := recordTimestamp(records[i]); ts != "" {
				latest = ts
			}
			stats.Records++

			if stats.Records%int64(e.config.CheckpointInterval) == 0 {
				if err := e.checkpoint(ctx, state, latest, stats); err != nil {
					return nil, e.fail(err)
				}
			}
		}

		stats.Pages++
		if len(records) < e.config.PageSize {
			break
		}
		offset += e.config.PageSize
	}

	if latest != "" {
		if err := e.checkpoint(ctx, state, latest, stats); err != nil {
			return nil, e.fail(err)
		}
	}

	stats.Duration = time.Since(startTime)

	e.logger.Info("sync completed",
		"table", stats.Table,
		"records", stats.Records,
		"pages", stats.Pages,
		"checkpoints", stats.Checkpoints,
		"cursor", latest,
		"duration", stats.Duration,
	)

	return stats, nil
}

// checkpoint durably persists the latest observed timestamp and then
// notifies the publisher. Publish failures are logged, not fatal: the
// durable state is already advanced.
func (e *SyncEngine) checkpoint(ctx context.Context, prior *domain.SyncState, cursor string, stats *domain.SyncStats) error {
	next := &domain.SyncState{
		TableID:       stats.TableID,
		LastUpdatedAt: cursor,
		LastSyncedAt:  time.Now().UTC(),
		TotalSynced:   prior.TotalSynced + stats.Records,
	}
	if err := e.syncState.Checkpoint(ctx, next); err != nil {
		return fmt.Errorf("checkpoint state: %w", err)
	}
	stats.Checkpoints++

	e.logger.Info("checkpointed", "records", stats.Records, "cursor", cursor)

	if e.publisher != nil {
		event := &domain.CheckpointEvent{
			TableID:   stats.TableID,
			Table:     stats.Table,
			Cursor:    cursor,
			Records:   stats.Records,
			Timestamp: time.Now().UTC(),
		}
		if err := e.publisher.PublishCheckpoint(ctx, event); err != nil {
			e.logger.Warn("publish checkpoint event failed", "error", err)
		}
	}
	return nil
}

func (e *SyncEngine) fail(err error) error {
	e.logger.Error("sync failed", "error_kind", domain.KindOf(err), "error", err)
	return err
}

// buildFilters prepends the fixed cursor predicate to any configured
// static filters. No cursor means an unbounded initial sweep.
func buildFilters(filterCursor string, custom []domain.Filter) []domain.Filter {
	var filters []domain.Filter
	if filterCursor != "" {
		filters = append(filters, domain.Filter{
			Field:        schema.FieldUpdatedAt,
			FunctionType: "greaterThan",
			Arg:          filterCursor,
		})
	}
	return append(filters, custom...)
}

func parseCustomFilters(raw string) ([]domain.Filter, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var filters []domain.Filter
	if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		return nil, domain.Errorf(domain.KindMalformedFilter, "parse custom filters: %w", err)
	}
	return filters, nil
}

// adjustForOverlap moves the cursor back to tolerate records whose
// commit lagged their timestamp assignment. An empty cursor stays empty.
func adjustForOverlap(cursor string, overlap time.Duration) (string, error) {
	if cursor == "" {
		return "", nil
	}
	t, err := time.Parse(time.RFC3339, cursor)
	if err != nil {
		return "", domain.Errorf(domain.KindConfig, "invalid cursor timestamp %q: %w", cursor, err)
	}
	return t.Add(-overlap).UTC().Format(time.RFC3339), nil
}

// recordTimestamp reads the record's modification time, falling back to
// the unprefixed key some deployments return.
func recordTimestamp(rec domain.Record) string {
	if s, ok := rec[schema.FieldUpdatedAt].(string); ok && s != "" {
		return s
	}
	if s, ok := rec["updatedAt"].(string); ok && s != "" {
		return s
	}
	return ""
}
