package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acme/product-importer/dto"
	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/utils"
)

func (api *API) handleListProducts(c *gin.Context) {
	filters := models.ProductFilters{
		Sku:  c.Query("sku"),
		Name: c.Query("name"),
	}
	if active := c.Query("active"); active != "" {
		parsed, err := strconv.ParseBool(active)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "active must be a boolean"})
			return
		}
		filters.Active = &parsed
	}
	pagination := models.PaginationParams{
		Offset: queryInt(c, "offset", 0),
		Limit:  queryInt(c, "limit", 0),
	}

	usecase := api.usecases.NewProductUseCase()
	products, err := usecase.ListProducts(c.Request.Context(), filters, pagination)
	if presentError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": utils.Map(products, dto.AdaptProductDto),
	})
}

func (api *API) handleGetProduct(c *gin.Context) {
	productId, ok := pathInt64(c, "product_id")
	if !ok {
		return
	}

	usecase := api.usecases.NewProductUseCase()
	product, err := usecase.GetProduct(c.Request.Context(), productId)
	if presentError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": dto.AdaptProductDto(product)})
}

func (api *API) handleCreateProduct(c *gin.Context) {
	var data dto.ProductCreateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json body"})
		return
	}

	usecase := api.usecases.NewProductUseCase()
	product, err := usecase.CreateProduct(c.Request.Context(), dto.AdaptProductCreate(data))
	if presentError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": dto.AdaptProductDto(product)})
}

func (api *API) handleUpdateProduct(c *gin.Context) {
	productId, ok := pathInt64(c, "product_id")
	if !ok {
		return
	}
	var data dto.ProductUpdateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json body"})
		return
	}

	usecase := api.usecases.NewProductUseCase()
	product, err := usecase.UpdateProduct(c.Request.Context(), productId, dto.AdaptProductUpdate(data))
	if presentError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": dto.AdaptProductDto(product)})
}

func (api *API) handleDeleteProduct(c *gin.Context) {
	productId, ok := pathInt64(c, "product_id")
	if !ok {
		return
	}

	usecase := api.usecases.NewProductUseCase()
	if presentError(c, usecase.DeleteProduct(c.Request.Context(), productId)) {
		return
	}

	c.Status(http.StatusNoContent)
}

func pathInt64(c *gin.Context, name string) (int64, bool) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": name + " must be an integer"})
		return 0, false
	}
	return value, true
}

func queryInt(c *gin.Context, name string, defaultValue int) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
