package api

import (
	"net/http"

	limits "github.com/gin-contrib/size"
	"github.com/gin-gonic/gin"
)

const defaultMaxCsvUploadSize = 100 * 1024 * 1024 // 100MB

func (api *API) addRoutes(r *gin.Engine) {
	r.GET("/liveness", handleLivenessProbe)

	maxUploadSize := api.config.MaxCsvUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxCsvUploadSize
	}
	r.POST("/upload", limits.RequestSizeLimiter(maxUploadSize), api.handleUploadCsv)
	r.GET("/upload/status/:job_id", api.handleGetImportJobStatus)
	r.GET("/upload/progress/:job_id", api.handleImportJobProgress)

	r.GET("/products", api.handleListProducts)
	r.POST("/products", api.handleCreateProduct)
	r.GET("/products/:product_id", api.handleGetProduct)
	r.PATCH("/products/:product_id", api.handleUpdateProduct)
	r.DELETE("/products/:product_id", api.handleDeleteProduct)

	r.GET("/webhooks", api.handleListWebhooks)
	r.POST("/webhooks", api.handleCreateWebhook)
	r.GET("/webhooks/:webhook_id", api.handleGetWebhook)
	r.PATCH("/webhooks/:webhook_id", api.handleUpdateWebhook)
	r.DELETE("/webhooks/:webhook_id", api.handleDeleteWebhook)
	r.POST("/webhooks/:webhook_id/test", api.handleTestWebhook)
}

func handleLivenessProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
