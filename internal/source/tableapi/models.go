package tableapi

import "tablesync/internal/domain"

// tableResponse is the wire shape of the table metadata endpoint.
type tableResponse struct {
	Label   string      `json:"label"`
	Columns []fieldSpec `json:"columns"`
}

type fieldSpec struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	DataType dataType `json:"dataType"`
}

type dataType struct {
	Type string `json:"type"`
}

func (t tableResponse) toDomain() *domain.TableMetadata {
	meta := &domain.TableMetadata{
		Label:  t.Label,
		Fields: make([]domain.Field, 0, len(t.Columns)),
	}
	for _, col := range t.Columns {
		meta.Fields = append(meta.Fields, domain.Field{
			ID:    col.Name,
			Label: col.Label,
			Type:  col.DataType.Type,
		})
	}
	return meta
}
