package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tablesync/internal/domain"
)

// RecordStore materializes synced tables in Postgres and upserts rows
// into them keyed by the id column.
type RecordStore struct {
	db *sqlx.DB
	tx *TransactionManager
}

func NewRecordStore(db *sqlx.DB, tx *TransactionManager) *RecordStore {
	return &RecordStore{db: db, tx: tx}
}

// EnsureTable creates the destination table for the resolved schema and
// records the emitted schema contract in the table_schemas registry.
// Both happen in one transaction so the registry never references a
// table that does not exist.
func (s *RecordStore) EnsureTable(ctx context.Context, schema domain.TableSchema) error {
	contract, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encode schema contract: %w", err)
	}

	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := GetExecutor(txCtx, s.db)

		if _, err := exec.ExecContext(txCtx, buildCreateTable(schema)); err != nil {
			return fmt.Errorf("create destination table: %w", err)
		}

		query := `
			INSERT INTO table_schemas (table_name, contract, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (table_name) DO UPDATE SET
				contract = EXCLUDED.contract,
				updated_at = EXCLUDED.updated_at`
		if _, err := exec.ExecContext(txCtx, query, schema.Table, contract); err != nil {
			return fmt.Errorf("register schema contract: %w", err)
		}
		return nil
	})
}

// Upsert inserts or replaces one row by primary key. Re-emitting the
// same record is a no-op apart from overwriting identical values.
func (s *RecordStore) Upsert(ctx context.Context, table string, rec domain.Record) error {
	if _, ok := rec["id"]; !ok {
		return fmt.Errorf("record for table %s has no id", table)
	}

	columns := sortedColumns(rec)

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(pq.QuoteIdentifier(table))
	sb.WriteString(" (")
	args := make([]any, 0, len(columns))
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(pq.QuoteIdentifier(col))
		args = append(args, rec[col])
	}
	sb.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("$")
		sb.WriteString(strconv.Itoa(i + 1))
	}
	sb.WriteString(") ON CONFLICT (id) DO ")

	if len(columns) == 1 {
		sb.WriteString("NOTHING")
	} else {
		sb.WriteString("UPDATE SET ")
		first := true
		for _, col := range columns {
			if col == "id" {
				continue
			}
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(pq.QuoteIdentifier(col))
			sb.WriteString(" = EXCLUDED.")
			sb.WriteString(pq.QuoteIdentifier(col))
		}
	}

	_, err := s.db.ExecContext(ctx, sb.String(), args...)
	return err
}

func buildCreateTable(schema domain.TableSchema) string {
	columns := make([]string, 0, len(schema.Columns))
	for name := range schema.Columns {
		if name == "id" {
			continue
		}
		columns = append(columns, name)
	}
	sort.Strings(columns)

	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(pq.QuoteIdentifier(schema.Table))
	sb.WriteString(" (")
	sb.WriteString(pq.QuoteIdentifier("id"))
	sb.WriteString(" ")
	sb.WriteString(sqlType(schema.Columns["id"]))
	sb.WriteString(" PRIMARY KEY")
	for _, name := range columns {
		sb.WriteString(", ")
		sb.WriteString(pq.QuoteIdentifier(name))
		sb.WriteString(" ")
		sb.WriteString(sqlType(schema.Columns[name]))
	}
	sb.WriteString(")")
	return sb.String()
}

func sortedColumns(rec domain.Record) []string {
	columns := make([]string, 0, len(rec))
	for col := range rec {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

func sqlType(t domain.ColumnType) string {
	switch t {
	case domain.TypeInt:
		return "BIGINT"
	case domain.TypeDouble:
		return "DOUBLE PRECISION"
	case domain.TypeBoolean:
		return "BOOLEAN"
	case domain.TypeUTCDatetime:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}
