package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var productColumns = []string{"sku", "name", "description", "price", "active"}

func TestComputeColumnMapping(t *testing.T) {
	tests := []struct {
		name            string
		header          []string
		expectedColumns []string
		expectedIndexes []int
		expectedSku     int
	}{
		{
			name:            "full intersection keeps file order",
			header:          []string{"sku", "name", "price"},
			expectedColumns: []string{"sku", "name", "price"},
			expectedIndexes: []int{0, 1, 2},
			expectedSku:     0,
		},
		{
			name:            "unknown file columns are dropped silently",
			header:          []string{"ean", "sku", "vendor", "name"},
			expectedColumns: []string{"sku", "name"},
			expectedIndexes: []int{1, 3},
			expectedSku:     0,
		},
		{
			name:            "header matching is trimmed and case-insensitive",
			header:          []string{" SKU ", "Name", "PRICE"},
			expectedColumns: []string{"sku", "name", "price"},
			expectedIndexes: []int{0, 1, 2},
			expectedSku:     0,
		},
		{
			name:            "duplicate header columns keep the first occurrence",
			header:          []string{"sku", "name", "sku"},
			expectedColumns: []string{"sku", "name"},
			expectedIndexes: []int{0, 1},
			expectedSku:     0,
		},
		{
			name:            "file without sku still maps",
			header:          []string{"name", "price"},
			expectedColumns: []string{"name", "price"},
			expectedIndexes: []int{0, 1},
			expectedSku:     -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapping, err := ComputeColumnMapping(tt.header, productColumns)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedColumns, mapping.Columns)
			assert.Equal(t, tt.expectedIndexes, mapping.FileIndexes)
			assert.Equal(t, tt.expectedSku, mapping.SkuIndex)
		})
	}
}

func TestComputeColumnMappingEmptyIntersection(t *testing.T) {
	_, err := ComputeColumnMapping([]string{"ean", "vendor"}, productColumns)
	assert.ErrorIs(t, err, SchemaMismatchError)
	assert.ErrorIs(t, err, BadParameterError)
}

func TestComputeColumnMappingNeverWritesAuditColumns(t *testing.T) {
	// identity and audit columns are excluded upstream, from the writable
	// column introspection; a file claiming them must not map them.
	mapping, err := ComputeColumnMapping(
		[]string{"id", "sku", "created_at", "updated_at"},
		productColumns,
	)
	assert.NoError(t, err)
	assert.Equal(t, []string{"sku"}, mapping.Columns)
}

func TestProjectRecord(t *testing.T) {
	mapping, err := ComputeColumnMapping([]string{"ean", "sku", "name"}, productColumns)
	assert.NoError(t, err)

	assert.Equal(t, []string{"ABC-1", "Widget"},
		mapping.Project([]string{"7350053850019", " ABC-1 ", "Widget"}))

	// short records yield empty values rather than panicking
	assert.Equal(t, []string{"ABC-1", ""},
		mapping.Project([]string{"7350053850019", "ABC-1"}))
}
