package dto

import (
	"time"

	"github.com/guregu/null/v5"

	"github.com/acme/product-importer/models"
)

type ProductDto struct {
	Id          int64       `json:"id"`
	Sku         string      `json:"sku"`
	Name        null.String `json:"name"`
	Description null.String `json:"description"`
	Price       null.Float  `json:"price"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func AdaptProductDto(product models.Product) ProductDto {
	return ProductDto{
		Id:          product.Id,
		Sku:         product.Sku,
		Name:        null.StringFromPtr(product.Name),
		Description: null.StringFromPtr(product.Description),
		Price:       null.FloatFromPtr(product.Price),
		Active:      product.Active,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

type ProductCreateBody struct {
	Sku         string   `json:"sku"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Active      *bool    `json:"active,omitempty"`
}

func AdaptProductCreate(input ProductCreateBody) models.CreateProductInput {
	return models.CreateProductInput{
		Sku:         input.Sku,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Active:      input.Active,
	}
}

type ProductUpdateBody struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Active      *bool    `json:"active,omitempty"`
}

func AdaptProductUpdate(input ProductUpdateBody) models.UpdateProductInput {
	return models.UpdateProductInput{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Active:      input.Active,
	}
}
