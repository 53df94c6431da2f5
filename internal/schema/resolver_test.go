package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablesync/internal/domain"
)

func TestResolve(t *testing.T) {
	meta := domain.TableMetadata{
		Label: "Work Orders",
		Fields: []domain.Field{
			{ID: "f1", Label: "Customer Name", Type: "text"},
			{ID: "f2", Label: "Quantity", Type: "integer"},
			{ID: "f3", Label: "Unit Price", Type: "float"},
			{ID: "f4", Label: "Done", Type: "boolean"},
			{ID: "f5", Label: "Due", Type: "timestamp"},
			{ID: "f6", Label: "Cycle Time", Type: "interval"},
			{ID: "f7", Label: "Assignee", Type: "user"},
			{ID: "id", Label: "Shadowed", Type: "text"},
			{ID: "_updatedAt", Label: "Shadowed Too", Type: "text"},
		},
	}

	schema, mapping := Resolve("tbl99", meta)

	assert.Equal(t, "work_orders__tbl99", schema.Table)
	assert.Equal(t, []string{"id"}, schema.PrimaryKey)

	// System columns always present, never overridden
	assert.Equal(t, domain.TypeString, schema.Columns["id"])
	assert.Equal(t, domain.TypeUTCDatetime, schema.Columns["_createdAt"])
	assert.Equal(t, domain.TypeUTCDatetime, schema.Columns["_updatedAt"])

	assert.Equal(t, domain.TypeString, schema.Columns["customer_name__f1"])
	assert.Equal(t, domain.TypeInt, schema.Columns["quantity__f2"])
	assert.Equal(t, domain.TypeDouble, schema.Columns["unit_price__f3"])
	assert.Equal(t, domain.TypeBoolean, schema.Columns["done__f4"])
	assert.Equal(t, domain.TypeUTCDatetime, schema.Columns["due__f5"])
	assert.Equal(t, domain.TypeInt, schema.Columns["cycle_time__f6"])
	assert.Equal(t, domain.TypeString, schema.Columns["assignee__f7"])

	// Fields colliding with system names are skipped entirely
	require.NotContains(t, mapping, "id")
	require.NotContains(t, mapping, "_updatedAt")
	assert.Len(t, mapping, 7)
	assert.Equal(t, "customer_name__f1", mapping["f1"])

	// 3 system columns + 7 discovered
	assert.Len(t, schema.Columns, 10)
}

func TestResolve_EmptyTableLabelFallsBackToID(t *testing.T) {
	schema, mapping := Resolve("T1", domain.TableMetadata{})

	assert.Equal(t, "t1__t1", schema.Table)
	assert.Empty(t, mapping)
	assert.Len(t, schema.Columns, 3)
}

func TestColumnType_Defaults(t *testing.T) {
	assert.Equal(t, domain.TypeString, ColumnType("text"))
	assert.Equal(t, domain.TypeString, ColumnType(""))
	assert.Equal(t, domain.TypeString, ColumnType("something-new"))
	assert.Equal(t, domain.TypeUTCDatetime, ColumnType("datetime"))
}
