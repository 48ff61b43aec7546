package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acme/product-importer/dto"
	"github.com/acme/product-importer/utils"
)

func (api *API) handleListWebhooks(c *gin.Context) {
	usecase := api.usecases.NewWebhookUseCase()
	webhooks, err := usecase.ListWebhooks(c.Request.Context())
	if presentError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"webhooks": utils.Map(webhooks, dto.AdaptWebhookDto),
	})
}

func (api *API) handleGetWebhook(c *gin.Context) {
	webhookId, ok := pathInt64(c, "webhook_id")
	if !ok {
		return
	}

	usecase := api.usecases.NewWebhookUseCase()
	webhook, err := usecase.GetWebhook(c.Request.Context(), webhookId)
	if presentError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"webhook": dto.AdaptWebhookDto(webhook)})
}

func (api *API) handleCreateWebhook(c *gin.Context) {
	var data dto.WebhookCreateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json body"})
		return
	}

	usecase := api.usecases.NewWebhookUseCase()
	webhook, err := usecase.CreateWebhook(c.Request.Context(), dto.AdaptWebhookCreate(data))
	if presentError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, gin.H{"webhook": dto.AdaptWebhookDto(webhook)})
}

func (api *API) handleUpdateWebhook(c *gin.Context) {
	webhookId, ok := pathInt64(c, "webhook_id")
	if !ok {
		return
	}
	var data dto.WebhookUpdateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json body"})
		return
	}

	usecase := api.usecases.NewWebhookUseCase()
	webhook, err := usecase.UpdateWebhook(c.Request.Context(), webhookId, dto.AdaptWebhookUpdate(data))
	if presentError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"webhook": dto.AdaptWebhookDto(webhook)})
}

func (api *API) handleDeleteWebhook(c *gin.Context) {
	webhookId, ok := pathInt64(c, "webhook_id")
	if !ok {
		return
	}

	usecase := api.usecases.NewWebhookUseCase()
	if presentError(c, usecase.DeleteWebhook(c.Request.Context(), webhookId)) {
		return
	}

	c.Status(http.StatusNoContent)
}

// handleTestWebhook enqueues an asynchronous test delivery. The response only
// acknowledges the enqueue, the POST to the endpoint happens on the queue.
func (api *API) handleTestWebhook(c *gin.Context) {
	webhookId, ok := pathInt64(c, "webhook_id")
	if !ok {
		return
	}

	usecase := api.usecases.NewWebhookUseCase()
	if presentError(c, usecase.TriggerTestNotification(c.Request.Context(), webhookId)) {
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
