package api

import (
	"github.com/acme/product-importer/usecases"
)

type API struct {
	usecases usecases.Usecases
	config   Configuration
}

func New(usecases usecases.Usecases, config Configuration) *API {
	return &API{
		usecases: usecases,
		config:   config,
	}
}
