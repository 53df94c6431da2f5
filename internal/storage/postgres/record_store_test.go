package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tablesync/internal/domain"
)

func TestBuildCreateTable(t *testing.T) {
	schema := domain.TableSchema{
		Table:      "work_orders__t1",
		PrimaryKey: []string{"id"},
		Columns: map[string]domain.ColumnType{
			"id":           domain.TypeString,
			"_updatedAt":   domain.TypeUTCDatetime,
			"quantity__f2": domain.TypeInt,
			"price__f3":    domain.TypeDouble,
			"done__f4":     domain.TypeBoolean,
		},
	}

	ddl := buildCreateTable(schema)

	// id leads as the primary key, the rest follow in sorted order
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "work_orders__t1" (`+
			`"id" TEXT PRIMARY KEY, `+
			`"_updatedAt" TIMESTAMPTZ, `+
			`"done__f4" BOOLEAN, `+
			`"price__f3" DOUBLE PRECISION, `+
			`"quantity__f2" BIGINT)`,
		ddl,
	)
}

func TestSQLType(t *testing.T) {
	assert.Equal(t, "TEXT", sqlType(domain.TypeString))
	assert.Equal(t, "BIGINT", sqlType(domain.TypeInt))
	assert.Equal(t, "DOUBLE PRECISION", sqlType(domain.TypeDouble))
	assert.Equal(t, "BOOLEAN", sqlType(domain.TypeBoolean))
	assert.Equal(t, "TIMESTAMPTZ", sqlType(domain.TypeUTCDatetime))
	assert.Equal(t, "TEXT", sqlType(domain.ColumnType("SOMETHING")))
}
