package dbmodels

import (
	"time"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/utils"
)

type DBWebhook struct {
	Id         int64     `db:"id"`
	Url        string    `db:"url"`
	EventTypes *string   `db:"event_types"`
	Enabled    bool      `db:"enabled"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

const TABLE_WEBHOOKS = "webhooks"

var SelectWebhookColumn = utils.ColumnList[DBWebhook]()

func AdaptWebhook(db DBWebhook) (models.Webhook, error) {
	return models.Webhook{
		Id:         db.Id,
		Url:        db.Url,
		EventTypes: db.EventTypes,
		Enabled:    db.Enabled,
		CreatedAt:  db.CreatedAt,
		UpdatedAt:  db.UpdatedAt,
	}, nil
}
