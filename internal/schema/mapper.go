// Package schema turns source table metadata into the destination
// schema contract and the field-ID to column-name mapping.
package schema

import (
	"regexp"
	"strings"

	"tablesync/internal/domain"
)

var (
	invalidChars   = regexp.MustCompile(`[^a-z0-9_]`)
	underscoreRuns = regexp.MustCompile(`_+`)
	spaceOrHyphen  = strings.NewReplacer(" ", "_", "-", "_")
)

// ColumnName derives a storage-friendly column name from a field ID and
// its optional human label, in the form label__id (for example
// customer_name__rqoqm). Appending the ID part keeps two fields with
// the same label from colliding, and the same inputs always produce the
// same name.
func ColumnName(fieldID, label string) string {
	part := strings.TrimSpace(label)
	if part != "" {
		part = strings.ToLower(part)
		part = spaceOrHyphen.Replace(part)
		part = invalidChars.ReplaceAllString(part, "")
		part = underscoreRuns.ReplaceAllString(part, "_")
		part = strings.Trim(part, "_")

		if part != "" && isDigit(part[0]) {
			part = "field_" + part
		}
	}
	if part == "" {
		part = strings.ToLower(fieldID)
	}

	cleanID := invalidChars.ReplaceAllString(strings.ToLower(fieldID), "")

	name := part + "__" + cleanID
	if name == "" || isDigit(name[0]) {
		name = "field_" + name
	}
	return name
}

// TransformRecord rewrites record keys using the field mapping. Keys
// absent from the mapping pass through unchanged, which covers system
// fields and any field discovery did not return.
func TransformRecord(rec domain.Record, mapping domain.FieldMapping) domain.Record {
	out := make(domain.Record, len(rec))
	for fieldID, value := range rec {
		if column, ok := mapping[fieldID]; ok {
			out[column] = value
		} else {
			out[fieldID] = value
		}
	}
	return out
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
