package models

import "time"

// Product is a row of the destination table. Id, CreatedAt and UpdatedAt are
// computed by the database and never writable, by the API or by imports.
type Product struct {
	Id          int64
	Sku         string
	Name        *string
	Description *string
	Price       *float64
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateProductInput struct {
	Sku         string
	Name        *string
	Description *string
	Price       *float64
	Active      *bool
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	Active      *bool
}

// WritableColumn is one destination column an import may write, read from
// the live table schema at job start. Identity and audit columns (id,
// created_at, updated_at) are never part of the list.
type WritableColumn struct {
	Name     string
	DataType string
}

func WritableColumnNames(columns []WritableColumn) []string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	return names
}

// ProductFilters are the list endpoint filters. Sku matches exactly,
// case-insensitively; Name is a substring match.
type ProductFilters struct {
	Sku    string
	Name   string
	Active *bool
}

type PaginationParams struct {
	Offset int
	Limit  int
}
