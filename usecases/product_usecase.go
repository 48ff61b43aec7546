package usecases

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/repositories"
)

const (
	defaultProductPageSize = 50
	maxProductPageSize     = 500
)

type ProductUseCase struct {
	transactionFactory transactionFactory
	productRepository  repositories.ProductRepository
}

func (uc ProductUseCase) ListProducts(
	ctx context.Context,
	filters models.ProductFilters,
	pagination models.PaginationParams,
) ([]models.Product, error) {
	if pagination.Limit <= 0 {
		pagination.Limit = defaultProductPageSize
	}
	if pagination.Limit > maxProductPageSize {
		pagination.Limit = maxProductPageSize
	}
	if pagination.Offset < 0 {
		pagination.Offset = 0
	}
	return uc.productRepository.ListProducts(ctx, uc.transactionFactory.GetExecutor(), filters, pagination)
}

func (uc ProductUseCase) GetProduct(ctx context.Context, productId int64) (models.Product, error) {
	return uc.productRepository.GetProductById(ctx, uc.transactionFactory.GetExecutor(), productId)
}

func (uc ProductUseCase) CreateProduct(ctx context.Context, input models.CreateProductInput) (models.Product, error) {
	input.Sku = strings.TrimSpace(input.Sku)
	if input.Sku == "" {
		return models.Product{}, errors.Wrap(models.BadParameterError, "sku is required")
	}
	if input.Price != nil && *input.Price < 0 {
		return models.Product{}, errors.Wrap(models.BadParameterError, "price must not be negative")
	}
	return uc.productRepository.CreateProduct(ctx, uc.transactionFactory.GetExecutor(), input)
}

func (uc ProductUseCase) UpdateProduct(
	ctx context.Context,
	productId int64,
	input models.UpdateProductInput,
) (models.Product, error) {
	if input.Price != nil && *input.Price < 0 {
		return models.Product{}, errors.Wrap(models.BadParameterError, "price must not be negative")
	}
	return uc.productRepository.UpdateProduct(ctx, uc.transactionFactory.GetExecutor(), productId, input)
}

func (uc ProductUseCase) DeleteProduct(ctx context.Context, productId int64) error {
	return uc.productRepository.DeleteProduct(ctx, uc.transactionFactory.GetExecutor(), productId)
}
