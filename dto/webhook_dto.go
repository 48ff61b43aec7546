package dto

import (
	"time"

	"github.com/guregu/null/v5"

	"github.com/acme/product-importer/models"
)

type WebhookDto struct {
	Id         int64       `json:"id"`
	Url        string      `json:"url"`
	EventTypes null.String `json:"event_types"`
	Enabled    bool        `json:"enabled"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func AdaptWebhookDto(webhook models.Webhook) WebhookDto {
	return WebhookDto{
		Id:         webhook.Id,
		Url:        webhook.Url,
		EventTypes: null.StringFromPtr(webhook.EventTypes),
		Enabled:    webhook.Enabled,
		CreatedAt:  webhook.CreatedAt,
		UpdatedAt:  webhook.UpdatedAt,
	}
}

type WebhookCreateBody struct {
	Url        string  `json:"url"`
	EventTypes *string `json:"event_types,omitempty"`
	Enabled    *bool   `json:"enabled,omitempty"`
}

func AdaptWebhookCreate(input WebhookCreateBody) models.CreateWebhookInput {
	return models.CreateWebhookInput{
		Url:        input.Url,
		EventTypes: input.EventTypes,
		Enabled:    input.Enabled,
	}
}

type WebhookUpdateBody struct {
	Url        *string `json:"url,omitempty"`
	EventTypes *string `json:"event_types,omitempty"`
	Enabled    *bool   `json:"enabled,omitempty"`
}

func AdaptWebhookUpdate(input WebhookUpdateBody) models.UpdateWebhookInput {
	return models.UpdateWebhookInput{
		Url:        input.Url,
		EventTypes: input.EventTypes,
		Enabled:    input.Enabled,
	}
}
