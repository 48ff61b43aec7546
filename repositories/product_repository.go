package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/repositories/dbmodels"
)

type ProductRepository interface {
	ListProducts(ctx context.Context, exec Executor, filters models.ProductFilters,
		pagination models.PaginationParams) ([]models.Product, error)
	GetProductById(ctx context.Context, exec Executor, productId int64) (models.Product, error)
	CreateProduct(ctx context.Context, exec Executor, input models.CreateProductInput) (models.Product, error)
	UpdateProduct(ctx context.Context, exec Executor, productId int64,
		input models.UpdateProductInput) (models.Product, error)
	DeleteProduct(ctx context.Context, exec Executor, productId int64) error
	ListWritableColumns(ctx context.Context, exec Executor) ([]models.WritableColumn, error)
}

type ProductRepositoryPostgresql struct{}

func (repo ProductRepositoryPostgresql) ListProducts(
	ctx context.Context,
	exec Executor,
	filters models.ProductFilters,
	pagination models.PaginationParams,
) ([]models.Product, error) {
	query := NewQueryBuilder().
		Select(dbmodels.SelectProductColumn...).
		From(dbmodels.TABLE_PRODUCTS).
		OrderBy("id DESC").
		Offset(uint64(pagination.Offset)).
		Limit(uint64(pagination.Limit))

	if filters.Sku != "" {
		query = query.Where("lower(sku) = lower(?)", filters.Sku)
	}
	if filters.Name != "" {
		query = query.Where("name ILIKE ?", "%"+filters.Name+"%")
	}
	if filters.Active != nil {
		query = query.Where(squirrel.Eq{"active": *filters.Active})
	}

	return SqlToListOfModels(ctx, exec, query, dbmodels.AdaptProduct)
}

func (repo ProductRepositoryPostgresql) GetProductById(
	ctx context.Context,
	exec Executor,
	productId int64,
) (models.Product, error) {
	return SqlToModel(
		ctx,
		exec,
		NewQueryBuilder().
			Select(dbmodels.SelectProductColumn...).
			From(dbmodels.TABLE_PRODUCTS).
			Where(squirrel.Eq{"id": productId}),
		dbmodels.AdaptProduct,
	)
}

func (repo ProductRepositoryPostgresql) CreateProduct(
	ctx context.Context,
	exec Executor,
	input models.CreateProductInput,
) (models.Product, error) {
	query := NewQueryBuilder().
		Insert(dbmodels.TABLE_PRODUCTS).
		Columns("sku", "name", "description", "price").
		Values(input.Sku, input.Name, input.Description, input.Price)
	if input.Active != nil {
		query = NewQueryBuilder().
			Insert(dbmodels.TABLE_PRODUCTS).
			Columns("sku", "name", "description", "price", "active").
			Values(input.Sku, input.Name, input.Description, input.Price, *input.Active)
	}

	product, err := SqlToModel(
		ctx,
		exec,
		query.Suffix("RETURNING " + columnList(dbmodels.SelectProductColumn)),
		dbmodels.AdaptProduct,
	)
	if IsUniqueViolationError(err) {
		return models.Product{}, errors.Wrapf(models.ConflictError,
			"a product with sku '%s' already exists", input.Sku)
	}
	return product, err
}

func (repo ProductRepositoryPostgresql) UpdateProduct(
	ctx context.Context,
	exec Executor,
	productId int64,
	input models.UpdateProductInput,
) (models.Product, error) {
	query := NewQueryBuilder().
		Update(dbmodels.TABLE_PRODUCTS).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": productId})

	if input.Name != nil {
		query = query.Set("name", *input.Name)
	}
	if input.Description != nil {
		query = query.Set("description", *input.Description)
	}
	if input.Price != nil {
		query = query.Set("price", *input.Price)
	}
	if input.Active != nil {
		query = query.Set("active", *input.Active)
	}

	return SqlToModel(
		ctx,
		exec,
		query.Suffix("RETURNING "+columnList(dbmodels.SelectProductColumn)),
		dbmodels.AdaptProduct,
	)
}

func (repo ProductRepositoryPostgresql) DeleteProduct(
	ctx context.Context,
	exec Executor,
	productId int64,
) error {
	sql, args, err := NewQueryBuilder().
		Delete(dbmodels.TABLE_PRODUCTS).
		Where(squirrel.Eq{"id": productId}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "can't build sql query")
	}

	tag, err := exec.Exec(ctx, sql, args...)
	if err != nil {
		return errors.Wrap(err, "error deleting product")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(models.NotFoundError, "no product with id %d", productId)
	}
	return nil
}

// ListWritableColumns reads the live destination schema, so imports follow
// column additions without a code change. Identity and audit columns are the
// destination's own business and never exposed.
func (repo ProductRepositoryPostgresql) ListWritableColumns(
	ctx context.Context,
	exec Executor,
) ([]models.WritableColumn, error) {
	rows, err := exec.Query(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = current_schema()
			AND table_name = $1
			AND column_name NOT IN ('id', 'created_at', 'updated_at')
		ORDER BY ordinal_position`,
		dbmodels.TABLE_PRODUCTS)
	if err != nil {
		return nil, errors.Wrap(err, "error introspecting destination columns")
	}
	defer rows.Close()

	var columns []models.WritableColumn
	for rows.Next() {
		var col models.WritableColumn
		if err := rows.Scan(&col.Name, &col.DataType); err != nil {
			return nil, errors.Wrap(err, "error scanning destination column")
		}
		columns = append(columns, col)
	}
	return columns, errors.Wrap(rows.Err(), "error iterating over destination columns")
}
