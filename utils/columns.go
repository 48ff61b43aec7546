package utils

import "reflect"

// ColumnList returns the "db" tags of T's fields, for use in select queries
// together with pgx.RowToStructByName.
func ColumnList[T any]() []string {
	var model T
	typ := reflect.TypeOf(model)
	columns := make([]string, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		columns = append(columns, tag)
	}
	return columns
}
