package schema

import "tablesync/internal/domain"

// System fields always exist on every source table and are never
// remapped or overridden by discovered fields.
const (
	FieldID        = "id"
	FieldCreatedAt = "_createdAt"
	FieldUpdatedAt = "_updatedAt"
)

var typeTable = map[string]domain.ColumnType{
	"integer":   domain.TypeInt,
	"float":     domain.TypeDouble,
	"boolean":   domain.TypeBoolean,
	"timestamp": domain.TypeUTCDatetime,
	"datetime":  domain.TypeUTCDatetime,
	"interval":  domain.TypeInt, // duration in seconds
	"user":      domain.TypeString,
}

// ColumnType maps a source field type to its destination column type.
// Unrecognized types fall back to STRING.
func ColumnType(sourceType string) domain.ColumnType {
	if t, ok := typeTable[sourceType]; ok {
		return t
	}
	return domain.TypeString
}

// Resolve builds the destination schema and the field-ID to column-name
// mapping from fetched table metadata. The table name comes from the
// table's own ID and label, through the same name derivation as columns.
func Resolve(tableID string, meta domain.TableMetadata) (domain.TableSchema, domain.FieldMapping) {
	columns := map[string]domain.ColumnType{
		FieldID:        domain.TypeString,
		FieldCreatedAt: domain.TypeUTCDatetime,
		FieldUpdatedAt: domain.TypeUTCDatetime,
	}

	mapping := make(domain.FieldMapping, len(meta.Fields))
	for _, field := range meta.Fields {
		if isSystemField(field.ID) {
			continue
		}
		column := ColumnName(field.ID, field.Label)
		mapping[field.ID] = column
		columns[column] = ColumnType(field.Type)
	}

	label := meta.Label
	if label == "" {
		label = tableID
	}

	return domain.TableSchema{
		Table:      ColumnName(tableID, label),
		PrimaryKey: []string{FieldID},
		Columns:    columns,
	}, mapping
}

func isSystemField(fieldID string) bool {
	return fieldID == FieldID || fieldID == FieldCreatedAt || fieldID == FieldUpdatedAt
}
