package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/repositories/dbmodels"
)

// STAGING_TABLE is the job-scoped staging area. It is a session temporary
// table created ON COMMIT DROP inside the import transaction, so concurrent
// jobs never see each other's rows and a failed import leaves nothing behind.
const STAGING_TABLE = "tmp_products_import"

// ProductImportRepository is the write-side of the import pipeline: a bulk
// streaming load into staging followed by one conflict-resolving statement
// into the destination table. All three methods must run on the same
// transaction.
type ProductImportRepository interface {
	CreateStagingTable(ctx context.Context, tx Transaction, mapping models.ColumnMapping) error
	LoadStaging(ctx context.Context, tx Transaction, mapping models.ColumnMapping,
		rows pgx.CopyFromSource) (int64, error)
	UpsertFromStaging(ctx context.Context, tx Transaction, mapping models.ColumnMapping,
		destinationColumns []models.WritableColumn) (int64, error)
}

type ProductImportRepositoryPostgresql struct{}

func (repo ProductImportRepositoryPostgresql) CreateStagingTable(
	ctx context.Context,
	tx Transaction,
	mapping models.ColumnMapping,
) error {
	columns := make([]string, 0, len(mapping.Columns)+1)
	// seq preserves file order so that the upsert can resolve in-file
	// duplicates in favor of the later row.
	columns = append(columns, "seq bigint")
	for _, col := range mapping.Columns {
		columns = append(columns, fmt.Sprintf("%s text", pgx.Identifier{col}.Sanitize()))
	}

	sql := fmt.Sprintf("CREATE TEMP TABLE %s (%s) ON COMMIT DROP",
		STAGING_TABLE, strings.Join(columns, ", "))
	if _, err := tx.Exec(ctx, sql); err != nil {
		return errors.Mark(errors.Wrap(err, "error creating staging table"), models.StorageError)
	}
	return nil
}

// LoadStaging streams rows into the staging table with the postgres COPY
// protocol. The source is pulled row by row, so memory use stays constant
// whatever the file size.
func (repo ProductImportRepositoryPostgresql) LoadStaging(
	ctx context.Context,
	tx Transaction,
	mapping models.ColumnMapping,
	rows pgx.CopyFromSource,
) (int64, error) {
	copied, err := tx.RawTx().CopyFrom(
		ctx,
		pgx.Identifier{STAGING_TABLE},
		append([]string{"seq"}, mapping.Columns...),
		rows,
	)
	if err != nil {
		return 0, errors.Mark(errors.Wrap(err, "error streaming rows into staging"), models.StorageError)
	}
	return copied, nil
}

// UpsertFromStaging applies the staged rows to the destination table in a
// single set-based statement, keyed on the case-insensitive sku. Matching
// rows get every mapped non-key column overwritten plus a refreshed
// updated_at; others are inserted with defaulted identity and audit columns.
// Rows with a blank key and all but the last of case-colliding duplicates
// are excluded here, whatever filtering happened upstream.
func (repo ProductImportRepositoryPostgresql) UpsertFromStaging(
	ctx context.Context,
	tx Transaction,
	mapping models.ColumnMapping,
	destinationColumns []models.WritableColumn,
) (int64, error) {
	if mapping.SkuIndex == -1 {
		// without the business key nothing can be written
		return 0, nil
	}

	dataTypes := make(map[string]string, len(destinationColumns))
	for _, col := range destinationColumns {
		dataTypes[col.Name] = col.DataType
	}

	insertColumns := make([]string, 0, len(mapping.Columns))
	selectExprs := make([]string, 0, len(mapping.Columns))
	updateExprs := make([]string, 0, len(mapping.Columns))
	for _, col := range mapping.Columns {
		quoted := pgx.Identifier{col}.Sanitize()
		insertColumns = append(insertColumns, quoted)
		selectExprs = append(selectExprs, castStagingColumn(quoted, dataTypes[col]))
		if col != "sku" {
			updateExprs = append(updateExprs, fmt.Sprintf("%s = EXCLUDED.%s", quoted, quoted))
		}
	}
	updateExprs = append(updateExprs, "updated_at = now()")

	sql := fmt.Sprintf(`
		INSERT INTO %s (%s)
		SELECT %s
		FROM (
			SELECT DISTINCT ON (lower(sku)) *
			FROM %s
			WHERE sku IS NOT NULL AND btrim(sku) <> ''
			ORDER BY lower(sku), seq DESC
		) staged
		ON CONFLICT ((lower(sku))) DO UPDATE SET %s`,
		dbmodels.TABLE_PRODUCTS,
		strings.Join(insertColumns, ", "),
		strings.Join(selectExprs, ", "),
		STAGING_TABLE,
		strings.Join(updateExprs, ", "),
	)

	tag, err := tx.Exec(ctx, sql)
	if err != nil {
		return 0, errors.Mark(errors.Wrap(err, "error upserting staged rows"), models.StorageError)
	}
	return tag.RowsAffected(), nil
}

// castStagingColumn converts a staged text value to the destination column
// type, mapping empty strings to NULL for non-text columns. Malformed values
// are filtered before staging, so these casts cannot fail.
func castStagingColumn(quoted string, dataType string) string {
	switch {
	case dataType == "numeric" || dataType == "double precision" || dataType == "real":
		return fmt.Sprintf("NULLIF(staged.%s, '')::numeric", quoted)
	case dataType == "integer" || dataType == "bigint" || dataType == "smallint":
		return fmt.Sprintf("NULLIF(staged.%s, '')::bigint", quoted)
	case dataType == "boolean":
		return fmt.Sprintf("NULLIF(staged.%s, '')::boolean", quoted)
	case strings.HasPrefix(dataType, "timestamp"):
		return fmt.Sprintf("NULLIF(staged.%s, '')::timestamptz", quoted)
	default:
		return fmt.Sprintf("staged.%s", quoted)
	}
}
