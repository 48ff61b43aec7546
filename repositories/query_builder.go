package repositories

import (
	"strings"

	"github.com/Masterminds/squirrel"
)

func NewQueryBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func columnList(columns []string) string {
	return strings.Join(columns, ", ")
}
