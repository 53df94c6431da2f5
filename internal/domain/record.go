package domain

// ColumnType is the semantic type of a destination column.
type ColumnType string

const (
	TypeString      ColumnType = "STRING"
	TypeInt         ColumnType = "INT"
	TypeDouble      ColumnType = "DOUBLE"
	TypeBoolean     ColumnType = "BOOLEAN"
	TypeUTCDatetime ColumnType = "UTC_DATETIME"
)

// Record is one row as returned by the source API, keyed by field ID
// before transformation and by column name after.
type Record map[string]any

// FieldMapping maps source field IDs to destination column names.
// System fields (id, _createdAt, _updatedAt) are never present here;
// they pass through under their original names.
type FieldMapping map[string]string

// TableSchema is the schema contract emitted to the destination once
// per sync. The primary key is always ["id"].
type TableSchema struct {
	Table      string                `json:"table"`
	PrimaryKey []string              `json:"primary_key"`
	Columns    map[string]ColumnType `json:"columns"`
}

// Field describes one discovered field in table metadata.
type Field struct {
	ID    string
	Label string
	Type  string
}

// TableMetadata is the source table's metadata as seen by the resolver.
type TableMetadata struct {
	Label  string
	Fields []Field
}

// Filter is one predicate sent to the records endpoint.
type Filter struct {
	Field        string `json:"field"`
	FunctionType string `json:"functionType"`
	Arg          any    `json:"arg"`
}

// SortOption is one sort directive sent to the records endpoint.
type SortOption struct {
	SortBy  string `json:"sortBy"`
	SortDir string `json:"sortDir"`
}

// RecordQuery describes one page fetch against the records endpoint.
type RecordQuery struct {
	Limit   int
	Offset  int
	Filters []Filter
	Sort    []SortOption
}
