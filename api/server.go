package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acme/product-importer/usecases"
)

func NewServer(router *gin.Engine, conf Configuration, uc usecases.Usecases) *http.Server {
	api := New(uc, conf)
	api.addRoutes(router)

	timeout := conf.DefaultTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &http.Server{
		Addr:        fmt.Sprintf("0.0.0.0:%s", conf.Port),
		ReadTimeout: timeout,
		IdleTimeout: timeout,
		// WriteTimeout stays unset: the progress stream holds its response
		// open for the lifetime of an import
		Handler: router,
	}
}
