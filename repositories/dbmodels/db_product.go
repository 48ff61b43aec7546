package dbmodels

import (
	"time"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/utils"
)

type DBProduct struct {
	Id          int64      `db:"id"`
	Sku         string     `db:"sku"`
	Name        *string    `db:"name"`
	Description *string    `db:"description"`
	Price       *float64   `db:"price"`
	Active      bool       `db:"active"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

const TABLE_PRODUCTS = "products"

var SelectProductColumn = utils.ColumnList[DBProduct]()

func AdaptProduct(db DBProduct) (models.Product, error) {
	return models.Product{
		Id:          db.Id,
		Sku:         db.Sku,
		Name:        db.Name,
		Description: db.Description,
		Price:       db.Price,
		Active:      db.Active,
		CreatedAt:   db.CreatedAt,
		UpdatedAt:   db.UpdatedAt,
	}, nil
}
