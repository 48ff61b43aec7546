package models

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ColumnMapping is the ordered subset of file columns that also exist as
// writable destination columns. It is computed once per job from the file
// header and the live destination schema, then threaded through the loading
// and upserting phases unchanged.
type ColumnMapping struct {
	// Columns holds the destination column names, in file order.
	Columns []string
	// FileIndexes holds, for each mapped column, its index in a csv record.
	FileIndexes []int
	// SkuIndex is the position of the business key in Columns, -1 when the
	// file does not carry it. Without a sku column every row is skipped at
	// load time, since the upsert is keyed on it.
	SkuIndex int
}

// ComputeColumnMapping intersects the file header with the destination's
// writable columns. Header names are trimmed and matched case-insensitively;
// duplicate header columns keep their first occurrence; file columns unknown
// to the destination are dropped silently. An empty intersection is a fatal
// validation error, not a degenerate no-op import.
func ComputeColumnMapping(header []string, writableColumns []string) (ColumnMapping, error) {
	writable := make(map[string]bool, len(writableColumns))
	for _, col := range writableColumns {
		writable[strings.ToLower(col)] = true
	}

	mapping := ColumnMapping{SkuIndex: -1}
	seen := make(map[string]bool, len(header))
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || !writable[name] || seen[name] {
			continue
		}
		seen[name] = true
		if name == "sku" {
			mapping.SkuIndex = len(mapping.Columns)
		}
		mapping.Columns = append(mapping.Columns, name)
		mapping.FileIndexes = append(mapping.FileIndexes, i)
	}

	if len(mapping.Columns) == 0 {
		return ColumnMapping{}, errors.Wrapf(SchemaMismatchError,
			"file header %v, destination columns %v", header, writableColumns)
	}
	return mapping, nil
}

// Project extracts the mapped values from a csv record, in mapping order.
// Values are trimmed of surrounding whitespace.
func (m ColumnMapping) Project(record []string) []string {
	values := make([]string, len(m.FileIndexes))
	for i, idx := range m.FileIndexes {
		if idx < len(record) {
			values[i] = strings.TrimSpace(record[idx])
		}
	}
	return values
}
